package event

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewEventBus_Creation_ReturnsInitializedBus(t *testing.T) {
	bus := NewEventBus()

	if bus == nil {
		t.Fatal("NewEventBus() returned nil")
	}
	if bus.handlers == nil {
		t.Error("handlers map not initialized")
	}
	if bus.nextID != 1 {
		t.Errorf("expected nextID to be 1, got %d", bus.nextID)
	}
}

func TestBaseEvent_GetType_ReturnsCorrectType(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		source    interface{}
	}{
		{"landed event", ObjectLanded, "physics"},
		{"captured event", ObjectCaptured, 123},
		{"empty source", WeaponFired, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &BaseEvent{EventType: tt.eventType, Source: tt.source}
			if event.GetType() != tt.eventType {
				t.Errorf("GetType() = %v, want %v", event.GetType(), tt.eventType)
			}
			if event.GetSource() != tt.source {
				t.Errorf("GetSource() = %v, want %v", event.GetSource(), tt.source)
			}
		})
	}
}

func TestBusSubscribe_MultipleHandlers_UniqueIDs(t *testing.T) {
	bus := NewEventBus()

	sub1 := bus.Subscribe(ObjectLanded, func(e Event) {})
	sub2 := bus.Subscribe(ObjectLanded, func(e Event) {})
	_ = bus.Subscribe(ObjectCrushed, func(e Event) {})

	if sub1.ID == sub2.ID {
		t.Error("subscriptions should have unique IDs")
	}
	if len(bus.handlers[ObjectLanded]) != 2 {
		t.Errorf("expected 2 handlers for ObjectLanded, got %d", len(bus.handlers[ObjectLanded]))
	}
	if len(bus.handlers[ObjectCrushed]) != 1 {
		t.Errorf("expected 1 handler for ObjectCrushed, got %d", len(bus.handlers[ObjectCrushed]))
	}
}

func TestBusPublish_CallsMatchingHandlersInOrder(t *testing.T) {
	bus := NewEventBus()
	var order []int

	bus.Subscribe(ObjectKilled, func(e Event) { order = append(order, 1) })
	bus.Subscribe(ObjectKilled, func(e Event) { order = append(order, 2) })
	bus.Subscribe(ObjectWoke, func(e Event) { order = append(order, 99) })

	bus.Publish(NewObjectEvent(ObjectKilled, "test", 1, 2, mgl32.Vec3{}))

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handler order = %v, want [1 2]", order)
	}
}

func TestBusPublish_NilBus_NoPanic(t *testing.T) {
	var bus *Bus
	bus.Publish(&BaseEvent{EventType: ObjectLanded})
}

func TestSubscriptionCancel_RemovesHandler(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	sub := bus.Subscribe(ObjectDamaged, func(e Event) { calls++ })
	keep := 0
	bus.Subscribe(ObjectDamaged, func(e Event) { keep++ })

	sub.Cancel()
	bus.Publish(&BaseEvent{EventType: ObjectDamaged})

	if calls != 0 {
		t.Errorf("cancelled handler called %d times", calls)
	}
	if keep != 1 {
		t.Errorf("remaining handler called %d times, want 1", keep)
	}

	// Cancelling twice is harmless.
	sub.Cancel()
	bus.Unsubscribe(sub)
	bus.Unsubscribe(nil)
}

func TestEventConstructors(t *testing.T) {
	snd := NewSoundEvent("physics", 4, "BounceMetal", 0.5)
	if snd.GetType() != BounceSound || snd.Volume != 0.5 || snd.ObjectID != 4 {
		t.Errorf("unexpected sound event %+v", snd)
	}

	w := NewWeaponEvent("store", "VehicleCrashesIntoBuildingWeapon", 9, mgl32.Vec3{1, 2, 3}, []uint32{9, 10})
	if w.GetType() != WeaponFired || len(w.Victims) != 2 || w.SourceID != 9 {
		t.Errorf("unexpected weapon event %+v", w)
	}
}
