package game

import (
	"errors"
	"fmt"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/tile"
)

const (
	// FreeTowerGold is what every player is given to build their first tower
	FreeTowerGold = 10
	// FreeThingsPerPlayer is how many pieces each player draws during setup
	FreeThingsPerPlayer = 10
)

// advancePhasePlayer hands the move to the next player in order. When
// that would bring it back round to the turn player, the phase moves
// on instead.
func (h *CommandHandler) advancePhasePlayer() error {
	g := h.state

	active, err := g.activePlayer()
	if err != nil {
		return err
	}
	next := g.order[(g.orderIndex(active.id)+1)%len(g.order)]

	var enter func() error
	switch {
	case next != g.turnPlayer:
		g.setActive(next)

	case g.InSetup():
		phase, err := nextSetupPhase(g.setupPhase)
		if err != nil {
			return err
		}
		g.setupPhase = phase
		g.setActive(next)
		enter = func() error { return h.setupPhaseEntered(phase) }

	default:
		phase, err := h.nextRegularPhase()
		if err != nil {
			return err
		}
		g.regularPhase = phase
		enter = func() error { return h.regularPhaseEntered(phase) }
	}

	h.resetTransients()

	if enter != nil {
		phase := g.phaseSnapshot()
		h.log.Info().
			Str("setup", g.setupPhase.String()).
			Str("regular", g.regularPhase.String()).
			Int("turnPlayer", g.turnPlayer).
			Msg("phase advanced")
		h.bus.Publish(Notification{Kind: PhaseChanged, Phase: &phase})
		if err := enter(); err != nil {
			return err
		}
	}

	active, err = g.activePlayer()
	if err != nil {
		return err
	}
	h.publishPlayerState(active)
	return nil
}

// advanceActiveTurnPlayer passes the turn to the next player in order
// and makes them the phase player. With two players the turn never
// changes hands.
func (h *CommandHandler) advanceActiveTurnPlayer() {
	g := h.state
	if len(g.order) > 2 {
		g.turnPlayer = g.order[(g.orderIndex(g.turnPlayer)+1)%len(g.order)]
	}
	g.setActive(g.turnPlayer)
}

func nextSetupPhase(current SetupPhase) (SetupPhase, error) {
	if !current.Valid() || current == SetupFinished {
		return 0, fmt.Errorf("%w: no setup phase follows %s", ErrInvalidConfiguration, current)
	}
	return current + 1, nil
}

// nextRegularPhase works out the phase after the current one and moves
// the phase player to whoever starts it.
func (h *CommandHandler) nextRegularPhase() (RegularPhase, error) {
	g := h.state
	current := g.regularPhase
	if !current.Valid() {
		return 0, fmt.Errorf("%w: unknown regular phase %s", ErrInvalidConfiguration, current)
	}

	if current == SpecialPowers {
		h.advanceActiveTurnPlayer()
		return RecruitingCharacters, nil
	}

	g.setActive(g.turnPlayer)
	if g.hasContestedHexes() {
		return Combat, nil
	}
	return current + 1, nil
}

// resetTransients clears everything that only lives for one phase
// player's go.
func (h *CommandHandler) resetTransients() {
	g := h.state
	g.combatPhase = NoCombat
	g.combatLocation = nil
	g.defender = 0
	g.rolls.RemoveReason(dice.RecruitSpecialCharacter)
	g.constructedHexes = map[Coord]struct{}{}
	for _, p := range g.players {
		p.target = nil
	}
}

func (h *CommandHandler) setupPhaseEntered(phase SetupPhase) error {
	g := h.state

	switch phase {
	case ExchangeSeaHexes:
		g.board.flipAllUp()
		h.bus.Publish(Notification{Kind: BoardFlipped, Hexes: g.Hexes()})

	case PlaceFreeTower:
		for _, id := range g.order {
			p := g.players[id]
			p.addGold(FreeTowerGold)
			h.publishPlayerState(p)
		}

	case PlaceFreeThings:
		h.dealFreeThings()

	case SetupFinished:
		g.board.finalize()
		h.log.Info().Msg("setup finished, board finalized")
		return h.regularPhaseEntered(g.regularPhase)
	}

	return nil
}

// dealFreeThings draws each player's free pieces in player order. An
// empty cup costs the player that draw and nothing else.
func (h *CommandHandler) dealFreeThings() {
	g := h.state

	for _, id := range g.order {
		p := g.players[id]
		drawn := []tile.Tile{}

		for i := 0; i < FreeThingsPerPlayer; i++ {
			t, err := h.pool.DrawTile(tile.CupPool)
			if err != nil {
				ev := h.log.Error()
				if errors.Is(err, tile.ErrNoMoreTiles) {
					ev = h.log.Warn()
				}
				ev.Err(err).Int("player", id).Int("draw", i+1).Msg("free thing not drawn")
				continue
			}
			drawn = append(drawn, t)
		}

		p.tray = append(p.tray, drawn...)
		h.bus.Publish(Notification{Kind: RackPlacement, PlayerID: id, Tiles: append([]tile.Tile{}, drawn...)})
		h.publishPlayerState(p)
	}
}

func (h *CommandHandler) regularPhaseEntered(phase RegularPhase) error {
	g := h.state

	switch phase {
	case RecruitingCharacters:
		for _, id := range g.order {
			p := g.players[id]
			income := g.income(p)
			p.addGold(income)
			h.log.Debug().Int("player", id).Int("income", income).Msg("income collected")
			h.publishPlayerState(p)
		}

	case Combat:
		for _, hex := range g.board.hexes {
			for i := range hex.things {
				if hex.things[i].CanMove() {
					hex.things[i].MoveSpeed = tile.MaxMoveSpeed
				}
			}
		}
	}

	return nil
}

// advanceCombat moves the battle on a step. After the defender's
// retreat the battle either goes another round or ends.
func (h *CommandHandler) advanceCombat() {
	g := h.state

	if g.combatPhase != DefenderRetreat {
		g.combatPhase++
	} else if len(g.ownersAt(*g.combatLocation)) > 1 {
		g.combatPhase = MagicAttack
	} else {
		h.log.Info().Str("at", g.combatLocation.String()).Msg("battle over")
		g.combatPhase = NoCombat
		g.combatLocation = nil
		g.defender = 0
	}

	phase := g.phaseSnapshot()
	h.bus.Publish(Notification{Kind: PhaseChanged, Phase: &phase})
}

func (h *CommandHandler) publishPlayerState(p *Player) {
	s := p.snapshot(h.state.income(p))
	h.bus.Publish(Notification{Kind: PlayerState, PlayerID: p.id, Player: &s})
}

func (h *CommandHandler) publishHex(c Coord) {
	s := h.state.hexSnapshot(c)
	h.bus.Publish(Notification{Kind: HexChanged, Hex: &s})
}
