package game

import (
	"fmt"
	"sort"
	"sync"

	"github.com/minaorangina/kingdoms/dice"
	"github.com/minaorangina/kingdoms/tile"
)

// NotificationKind says what changed
type NotificationKind int

const (
	HexOwnershipChanged NotificationKind = iota
	HexChanged
	BoardFlipped
	DieRolled
	DiceResolved
	RollNeeded
	PhaseChanged
	PlayerState
	RackPlacement
	RetreatWaived
	HitsChanged
	EventResolved
)

var notificationNames = map[NotificationKind]string{
	HexOwnershipChanged: "HexOwnershipChanged",
	HexChanged:          "HexChanged",
	BoardFlipped:        "BoardFlipped",
	DieRolled:           "DieRolled",
	DiceResolved:        "DiceResolved",
	RollNeeded:          "RollNeeded",
	PhaseChanged:        "PhaseChanged",
	PlayerState:         "PlayerState",
	RackPlacement:       "RackPlacement",
	RetreatWaived:       "RetreatWaived",
	HitsChanged:         "HitsChanged",
	EventResolved:       "EventResolved",
}

func (k NotificationKind) String() string {
	if name, ok := notificationNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NotificationKind(%d)", int(k))
}

func (k NotificationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *NotificationKind) UnmarshalText(text []byte) error {
	for kind, name := range notificationNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown notification kind %q", string(text))
}

// Notification describes a change that has already been applied to the
// game. Only the fields relevant to Kind are set.
type Notification struct {
	Kind     NotificationKind    `json:"kind"`
	PlayerID int                 `json:"playerID,omitempty"`
	Hex      *HexSnapshot        `json:"hex,omitempty"`
	Hexes    []HexSnapshot       `json:"hexes,omitempty"`
	Player   *PlayerSnapshot     `json:"player,omitempty"`
	Phase    *PhaseSnapshot      `json:"phase,omitempty"`
	Roll     *dice.RollSnapshot  `json:"roll,omitempty"`
	Rolls    []dice.RollSnapshot `json:"rolls,omitempty"`
	Tiles    []tile.Tile         `json:"tiles,omitempty"`
	Hits     int                 `json:"hits,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Subscriber receives notifications. Notify is called on the command
// goroutine and must not block.
type Subscriber interface {
	Notify(Notification)
}

// SubscriberFunc adapts a function to a Subscriber
type SubscriberFunc func(Notification)

func (f SubscriberFunc) Notify(n Notification) {
	f(n)
}

type subscription struct {
	subscriber Subscriber
	kinds      map[NotificationKind]bool
}

// Bus delivers one session's notifications to the subscribers
// registered with it, in registration order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

func NewBus() *Bus {
	return &Bus{subs: map[int]subscription{}}
}

// Register adds a subscriber for the given kinds, or for every kind if
// none are given. The returned id is used to unregister.
func (b *Bus) Register(s Subscriber, kinds ...NotificationKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{subscriber: s}
	if len(kinds) > 0 {
		sub.kinds = map[NotificationKind]bool{}
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	b.next++
	b.subs[b.next] = sub
	return b.next
}

func (b *Bus) Unregister(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Len reports how many subscribers are registered
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish hands n to every interested subscriber
func (b *Bus) Publish(n Notification) {
	if b == nil {
		return
	}

	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	targets := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		sub := b.subs[id]
		if sub.kinds == nil || sub.kinds[n.Kind] {
			targets = append(targets, sub.subscriber)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.Notify(n)
	}
}
