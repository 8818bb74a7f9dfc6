package game

import (
	"testing"

	utils "github.com/minaorangina/kingdoms/internal"
	"github.com/stretchr/testify/assert"
)

func TestBus(t *testing.T) {
	t.Run("delivers in registration order", func(t *testing.T) {
		bus := NewBus()
		got := []string{}
		bus.Register(SubscriberFunc(func(Notification) { got = append(got, "first") }))
		bus.Register(SubscriberFunc(func(Notification) { got = append(got, "second") }))

		bus.Publish(Notification{Kind: DieRolled})
		assert.Equal(t, []string{"first", "second"}, got)
	})

	t.Run("filters by kind", func(t *testing.T) {
		bus := NewBus()
		rolls := &recorder{}
		all := &recorder{}
		bus.Register(rolls, DieRolled, DiceResolved)
		bus.Register(all)

		bus.Publish(Notification{Kind: DieRolled})
		bus.Publish(Notification{Kind: PhaseChanged})
		bus.Publish(Notification{Kind: DiceResolved})

		assert.Len(t, rolls.notes, 2)
		assert.Len(t, all.notes, 3)
	})

	t.Run("unregistered subscribers hear nothing", func(t *testing.T) {
		bus := NewBus()
		rec := &recorder{}
		id := bus.Register(rec)
		utils.AssertEqual(t, bus.Len(), 1)

		bus.Unregister(id)
		bus.Publish(Notification{Kind: DieRolled})

		utils.AssertEqual(t, bus.Len(), 0)
		assert.Empty(t, rec.notes)
	})

	t.Run("a subscriber can leave while being notified", func(t *testing.T) {
		bus := NewBus()
		var id int
		calls := 0
		id = bus.Register(SubscriberFunc(func(Notification) {
			calls++
			bus.Unregister(id)
		}))

		bus.Publish(Notification{Kind: DieRolled})
		bus.Publish(Notification{Kind: DieRolled})
		utils.AssertEqual(t, calls, 1)
	})
}

func TestNotificationKindText(t *testing.T) {
	for kind := range notificationNames {
		text, err := kind.MarshalText()
		utils.AssertNoError(t, err)

		var got NotificationKind
		utils.AssertNoError(t, got.UnmarshalText(text))
		utils.AssertEqual(t, got, kind)
	}
}
