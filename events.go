package voxelphys

import (
	"cmp"
	"slices"

	"github.com/akmonengine/voxelphys/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	CONTACT_ENTER EventType = iota
	CONTACT_STAY
	CONTACT_EXIT
	BLOCK_COLLISION
	LANDED
)

type pairKey struct {
	entityA *actor.Entity
	entityB *actor.Entity
}

// makePairKey creates a normalized pair key, lowest ID first
func makePairKey(entityA, entityB *actor.Entity) pairKey {
	if entityB.ID < entityA.ID {
		entityA, entityB = entityB, entityA
	}

	return pairKey{entityA: entityA, entityB: entityB}
}

func comparePairs(a, b pairKey) int {
	if c := cmp.Compare(a.entityA.ID, b.entityA.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.entityB.ID, b.entityB.ID)
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case CONTACT_ENTER:
		return "contact_enter"
	case CONTACT_STAY:
		return "contact_stay"
	case CONTACT_EXIT:
		return "contact_exit"
	case BLOCK_COLLISION:
		return "block_collision"
	case LANDED:
		return "landed"
	}
	return "unknown"
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Contact events, between two entities of the world contact group
type ContactEnterEvent struct {
	EntityA *actor.Entity
	EntityB *actor.Entity
}

func (e ContactEnterEvent) Type() EventType { return CONTACT_ENTER }

type ContactStayEvent struct {
	EntityA *actor.Entity
	EntityB *actor.Entity
}

func (e ContactStayEvent) Type() EventType { return CONTACT_STAY }

type ContactExitEvent struct {
	EntityA *actor.Entity
	EntityB *actor.Entity
}

func (e ContactExitEvent) Type() EventType { return CONTACT_EXIT }

// BlockCollisionEvent is sent when blocks clamped the movement of an entity
type BlockCollisionEvent struct {
	Entity     *actor.Entity
	Horizontal bool
	Vertical   bool
	// Requested is the movement before clamping
	Requested mgl64.Vec3
}

func (e BlockCollisionEvent) Type() EventType { return BLOCK_COLLISION }

// LandedEvent is sent on the tick an entity starts standing on a block
type LandedEvent struct {
	Entity *actor.Entity
}

func (e LandedEvent) Type() EventType { return LANDED }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Contact tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		*e = NewEvents()
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContact marks the pair as touching during the current tick
func (e *Events) recordContact(entityA, entityB *actor.Entity) {
	e.currentActivePairs[makePairKey(entityA, entityB)] = true
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// processContactEvents compares current and previous pairs to detect Enter/Stay/Exit.
// Pairs are emitted by ascending IDs so listeners see a stable order.
func (e *Events) processContactEvents() {
	current := make([]pairKey, 0, len(e.currentActivePairs))
	for pair := range e.currentActivePairs {
		current = append(current, pair)
	}
	slices.SortFunc(current, comparePairs)

	for _, pair := range current {
		if e.previousActivePairs[pair] {
			e.emit(ContactStayEvent{EntityA: pair.entityA, EntityB: pair.entityB})
		} else {
			e.emit(ContactEnterEvent{EntityA: pair.entityA, EntityB: pair.entityB})
		}
	}

	var exited []pairKey
	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			exited = append(exited, pair)
		}
	}
	slices.SortFunc(exited, comparePairs)
	for _, pair := range exited {
		e.emit(ContactExitEvent{EntityA: pair.entityA, EntityB: pair.entityB})
	}

	// Swap for next tick and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// forget drops every pair involving entity, without an exit event
func (e *Events) forget(entity *actor.Entity) {
	for pair := range e.previousActivePairs {
		if pair.entityA == entity || pair.entityB == entity {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.entityA == entity || pair.entityB == entity {
			delete(e.currentActivePairs, pair)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processContactEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
