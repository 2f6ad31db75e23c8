// Package event carries simulation notifications (landings, crush kills,
// captures, temporary weapon detonations) to whoever is listening: audio,
// scripting, or a test.
package event

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	ObjectLanded    Type = "object_landed"
	BounceSound     Type = "bounce_sound"
	ObjectDamaged   Type = "object_damaged"
	ObjectCrushed   Type = "object_crushed"
	ObjectKilled    Type = "object_killed"
	ObjectDestroyed Type = "object_destroyed"
	ObjectCaptured  Type = "object_captured"
	ObjectWoke      Type = "object_woke"
	WeaponFired     Type = "weapon_fired"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription is returned by Subscribe. Cancel removes the handler.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run synchronously
// on the publishing goroutine, in subscription order.
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

// Unsubscribe cancels sub. It is safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub != nil && sub.Cancel != nil {
		sub.Cancel()
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. Publishing on a nil bus
// is a no-op so collaborators can leave the bus unset.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscriber(nil), b.handlers[event.GetType()]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// ObjectEvent describes something that happened to one object, optionally
// caused by another.
type ObjectEvent struct {
	BaseEvent
	ObjectID uint32
	OtherID  uint32
	Position mgl32.Vec3
	Amount   float32
}

// NewObjectEvent creates a new object event
func NewObjectEvent(eventType Type, source interface{}, objectID, otherID uint32, pos mgl32.Vec3) *ObjectEvent {
	return &ObjectEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		ObjectID: objectID,
		OtherID:  otherID,
		Position: pos,
	}
}

// SoundEvent asks the audio layer to play a named sound at an object.
type SoundEvent struct {
	BaseEvent
	ObjectID uint32
	Sound    string
	Volume   float32
}

// NewSoundEvent creates a new sound event
func NewSoundEvent(source interface{}, objectID uint32, sound string, volume float32) *SoundEvent {
	return &SoundEvent{
		BaseEvent: BaseEvent{
			EventType: BounceSound,
			Source:    source,
		},
		ObjectID: objectID,
		Sound:    sound,
		Volume:   volume,
	}
}

// WeaponEvent reports a temporary weapon detonation.
type WeaponEvent struct {
	BaseEvent
	Weapon   string
	SourceID uint32
	Position mgl32.Vec3
	Victims  []uint32
}

// NewWeaponEvent creates a new weapon event
func NewWeaponEvent(source interface{}, weapon string, sourceID uint32, pos mgl32.Vec3, victims []uint32) *WeaponEvent {
	return &WeaponEvent{
		BaseEvent: BaseEvent{
			EventType: WeaponFired,
			Source:    source,
		},
		Weapon:   weapon,
		SourceID: sourceID,
		Position: pos,
		Victims:  victims,
	}
}
