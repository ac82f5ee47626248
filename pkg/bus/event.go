package bus

import (
	"context"
)

type Kind string

const (
	// KindSsc is an inbound GodTossing contribution delivered from the
	// network transport or the ingest API into the internal bus.
	KindSsc Kind = "ssc"
	// KindSlot is a slot-tick notification from the slot clock.
	KindSlot Kind = "slot"
)

type Event struct {
	Kind    Kind
	Epoch   uint64
	Slot    uint64
	Body    any
	TraceID string
}

type Subscriber chan Event

type Bus struct {
	pub chan Event
}

func New(size int) *Bus {
	if size <= 0 {
		size = 128
	}
	return &Bus{pub: make(chan Event, size)}
}

func (b *Bus) Publish(_ context.Context, ev Event) {
	select {
	case b.pub <- ev:
	default: // drop on backpressure
	}
}

func (b *Bus) Subscribe() Subscriber { return b.pub }
