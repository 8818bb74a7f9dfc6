package game

import (
	"errors"
	"testing"

	utils "github.com/minaorangina/kingdoms/internal"
	"github.com/minaorangina/kingdoms/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventTile(id int, name string) tile.Tile {
	return tile.Tile{ID: id, Name: name, Kind: tile.Event}
}

func eventSetup(events ...tile.Tile) Setup {
	s := regularSetup(RandomEvents, 1, 2)
	s.Board = smallBoard()
	s.Board[0].Owner = 1
	s.Board[0].Things = []PlacedThing{
		{Tile: tile.NewBuilding(100, "Keep", 2), Owner: 1},
		{Tile: tile.NewCreature(101, "Ogre", 2), Owner: 1},
	}
	s.Board[1].Owner = 2
	s.Board[1].Things = []PlacedThing{{Tile: tile.NewBuilding(102, "Castle", 3), Owner: 2}}
	s.Board[2].Owner = 1
	s.Board[2].Things = []PlacedThing{{Tile: tile.NewCreature(103, "Troll", 4), Owner: 1}}
	s.Board[3].Things = []PlacedThing{{Tile: tile.NewBuilding(104, "Tower", 1), Owner: 2}}
	s.Players[0].Gold = 10
	s.Players[0].Tray = events
	return s
}

func TestDarkPlague(t *testing.T) {
	plague := eventTile(500, DarkPlague)
	h, rec := newTestHandler(t, eventSetup(plague), nil)
	g := h.State()

	utils.AssertNoError(t, h.ApplyRandomEvent(1, plague.ID, nil))

	t.Run("owners lose the combat value of their buildings", func(t *testing.T) {
		assert.Equal(t, map[Coord]int{
			{0, 0}: 2,
			{0, 1}: 3,
		}, g.ThingsToRemove())
	})

	t.Run("the event is spent", func(t *testing.T) {
		p, _ := g.Player(1)
		assert.Empty(t, p.Tray)
	})

	t.Run("resolution is reported", func(t *testing.T) {
		resolved := rec.ofKind(EventResolved)
		require.Len(t, resolved, 1)
		utils.AssertEqual(t, resolved[0].Error, "")
		utils.AssertEqual(t, resolved[0].Tiles[0].Name, DarkPlague)
	})
}

func TestEventFailures(t *testing.T) {
	t.Run("events without rules change nothing", func(t *testing.T) {
		vandals := eventTile(500, Vandalism)
		h, rec := newTestHandler(t, eventSetup(vandals), nil)
		g := h.State()

		utils.AssertNoError(t, h.ApplyRandomEvent(1, vandals.ID, nil))
		assert.Empty(t, g.ThingsToRemove())

		resolved := rec.ofKind(EventResolved)
		require.Len(t, resolved, 1)
		assert.Contains(t, resolved[0].Error, ErrEffectUnresolved.Error())
	})

	t.Run("an effect that fails half way applies nothing", func(t *testing.T) {
		greed := eventTile(500, "Greed")
		h, _ := newTestHandler(t, eventSetup(greed), nil)
		g := h.State()
		h.events.Register("Greed", func(ctx *EventContext, _ tile.Tile, _ *tile.Tile) error {
			if err := ctx.AdjustGold(1, 100); err != nil {
				return err
			}
			return ctx.AdjustGold(99, 100)
		})

		utils.AssertNoError(t, h.ApplyRandomEvent(1, greed.ID, nil))
		utils.AssertEqual(t, gold(t, g, 1), 10)
	})

	t.Run("a panicking effect is contained", func(t *testing.T) {
		chaos := eventTile(500, "Chaos")
		h, rec := newTestHandler(t, eventSetup(chaos), nil)
		g := h.State()
		h.events.Register("Chaos", func(ctx *EventContext, _ tile.Tile, _ *tile.Tile) error {
			_ = ctx.AddHits(2, 3)
			panic("the dice fell off the table")
		})

		utils.AssertNoError(t, h.ApplyRandomEvent(1, chaos.ID, nil))
		utils.AssertEqual(t, g.HitsPending(2), 0)
		assert.Contains(t, rec.ofKind(EventResolved)[0].Error, "the dice fell off the table")
	})

	t.Run("unknown events are logged", func(t *testing.T) {
		mystery := eventTile(500, "Mystery")
		h, rec := newTestHandler(t, eventSetup(mystery), nil)

		utils.AssertNoError(t, h.ApplyRandomEvent(1, mystery.ID, nil))
		assert.Contains(t, rec.ofKind(EventResolved)[0].Error, ErrUnknownEvent.Error())
	})

	t.Run("only held events can be played", func(t *testing.T) {
		plague := eventTile(500, DarkPlague)
		h, _ := newTestHandler(t, eventSetup(), nil)

		utils.AssertErrorIs(t, h.ApplyRandomEvent(1, plague.ID, nil), ErrPrecondition)
	})

	t.Run("only events can be played", func(t *testing.T) {
		h, _ := newTestHandler(t, eventSetup(tile.NewCreature(500, "Dragon", 6)), nil)

		utils.AssertErrorIs(t, h.ApplyRandomEvent(1, 500, nil), ErrPrecondition)
		p, _ := h.State().Player(1)
		assert.Len(t, p.Tray, 1)
	})
}

func TestEventIdentity(t *testing.T) {
	t.Run("the held tile decides the effect", func(t *testing.T) {
		harvest := eventTile(500, GoodHarvest)
		h, rec := newTestHandler(t, eventSetup(harvest), nil)

		utils.AssertNoError(t, h.ApplyRandomEvent(1, harvest.ID, nil))
		assert.Empty(t, h.State().ThingsToRemove())

		resolved := rec.ofKind(EventResolved)
		require.Len(t, resolved, 1)
		utils.AssertEqual(t, resolved[0].Tiles[0].Name, GoodHarvest)
	})

	t.Run("targets are looked up on the board", func(t *testing.T) {
		curse := eventTile(500, "Curse")
		h, _ := newTestHandler(t, eventSetup(curse), nil)
		var seen tile.Tile
		h.events.Register("Curse", func(_ *EventContext, _ tile.Tile, target *tile.Tile) error {
			seen = *target
			return nil
		})

		troll := 103
		utils.AssertNoError(t, h.ApplyRandomEvent(1, curse.ID, &troll))
		utils.AssertEqual(t, seen.Name, "Troll")
		utils.AssertEqual(t, seen.Value, 4)

		p, _ := h.State().Player(1)
		require.NotNil(t, p.Target)
		utils.AssertEqual(t, p.Target.ID, troll)
	})

	t.Run("a target that is not in play is refused", func(t *testing.T) {
		curse := eventTile(500, "Curse")
		h, _ := newTestHandler(t, eventSetup(curse), nil)

		missing := 999
		utils.AssertErrorIs(t, h.ApplyRandomEvent(1, curse.ID, &missing), ErrPrecondition)
		p, _ := h.State().Player(1)
		assert.Len(t, p.Tray, 1)
	})
}

func TestEventResolver(t *testing.T) {
	r := NewEventResolver()

	for _, name := range []string{
		DarkPlague, Defection, GoodHarvest, MotherLode, TeeniePox,
		TerrainDisaster, Vandalism, WeatherControl, WillingWorkers, BigJuju,
	} {
		assert.True(t, r.Known(name), name)
	}
	assert.False(t, r.Known("Mystery"))

	t.Run("registered effects replace the stubs", func(t *testing.T) {
		g, err := NewGameState(eventSetup())
		require.NoError(t, err)

		r.Register(GoodHarvest, func(ctx *EventContext, _ tile.Tile, _ *tile.Tile) error {
			return ctx.AdjustGold(1, 5)
		})
		staged, err := r.resolve(g, eventTile(1, GoodHarvest), nil)
		utils.AssertNoError(t, err)
		assert.Len(t, staged, 1)

		_, err = r.resolve(g, eventTile(1, BigJuju), nil)
		assert.True(t, errors.Is(err, ErrEffectUnresolved))
	})
}
