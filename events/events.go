package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange      EventType = "balance_change"
	EventTypeSettlementResolved EventType = "settlement_resolved"
	EventTypeDepositSwept       EventType = "deposit_swept"
	EventTypeReconciliation     EventType = "reconciliation"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance mutation applied by the ledger
type BalanceChangeEvent struct {
	Account    string
	OldBalance decimal.Decimal
	NewBalance decimal.Decimal
	Operation  string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// SettlementResolvedEvent represents one completed play settlement
type SettlementResolvedEvent struct {
	Owner     string
	Account   string
	Bet       decimal.Decimal
	Payout    decimal.Decimal
	Won       bool
	Templates []string
}

func (e SettlementResolvedEvent) Type() EventType {
	return EventTypeSettlementResolved
}

// DepositSweptEvent represents one external deposit folded into the ledger
type DepositSweptEvent struct {
	Pool    string
	Account string
	Amount  decimal.Decimal
	TxID    string
	Ref     string
}

func (e DepositSweptEvent) Type() EventType {
	return EventTypeDepositSwept
}

// ReconciliationEvent represents a settlement leg that was skipped and needs
// external reconciliation
type ReconciliationEvent struct {
	Account   string
	Operation string
	Amount    decimal.Decimal
	Reason    string
}

func (e ReconciliationEvent) Type() EventType {
	return EventTypeReconciliation
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the settlement path
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
