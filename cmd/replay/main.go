// Command replay rebuilds a game from its setup and journal and prints
// where it ended up.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minaorangina/kingdoms/engine"
	"github.com/minaorangina/kingdoms/game"
	"github.com/minaorangina/kingdoms/store"
	"github.com/rs/zerolog"
)

type options struct {
	setupPath string
	gameID    string
	dialect   string
	dsn       string
	seed      int64
	verbose   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.setupPath, "setup", "", "path to the game's setup (yaml or json)")
	flag.StringVar(&opts.gameID, "game", "", "ID of the game to replay")
	flag.StringVar(&opts.dialect, "dialect", string(store.DialectSQLite), "journal database: sqlite or postgres")
	flag.StringVar(&opts.dsn, "dsn", os.Getenv("KINGDOMS_DB_DSN"), "journal database dsn")
	flag.Int64Var(&opts.seed, "seed", 0, "seed the server logged for the game, if the setup has none")
	flag.BoolVar(&opts.verbose, "v", false, "print every notification while replaying")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options, out io.Writer) error {
	if opts.setupPath == "" || opts.gameID == "" {
		return errors.New("both -setup and -game are required")
	}

	f, err := os.Open(opts.setupPath)
	if err != nil {
		return err
	}
	defer f.Close()

	setup, err := game.LoadSetup(f)
	if err != nil {
		return err
	}
	if opts.seed != 0 {
		setup.Seed = opts.seed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	journal, err := store.OpenSQLJournal(ctx, store.Dialect(opts.dialect), opts.dsn)
	if err != nil {
		return err
	}
	defer journal.Close()

	entries, err := journal.Entries(ctx, opts.gameID)
	if err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	bus := game.NewBus()
	if opts.verbose {
		bus.Register(engine.NewCLIPlayer(0, "replay", out))
	}

	state, err := engine.Replay(setup, entries, game.HandlerOpts{Bus: bus, Logger: &logger})
	if err != nil {
		return err
	}

	engine.SendText(out, "replayed %d commands for game %s\n", len(entries), opts.gameID)
	engine.SendText(out, "%s\n", engine.DescribeSnapshot(state.Snapshot()))
	return nil
}
