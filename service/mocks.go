package service

import (
	"context"
	"sync"

	"cardbet/events"
	"cardbet/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockChainClient is a mock implementation of ChainClient
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) AccountBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockChainClient) CollectDeposits(ctx context.Context, pool string) ([]models.Deposit, error) {
	args := m.Called(ctx, pool)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deposit), args.Error(1)
}

func (m *MockChainClient) SubmitTransfer(ctx context.Context, to string, amount decimal.Decimal, memo string) (string, error) {
	args := m.Called(ctx, to, amount, memo)
	return args.String(0), args.Error(1)
}

func (m *MockChainClient) VerifyNonce(ctx context.Context, owner, nonce, kind string) error {
	args := m.Called(ctx, owner, nonce, kind)
	return args.Error(0)
}

// MockCardRegistry is a mock implementation of CardRegistry
type MockCardRegistry struct {
	mock.Mock
}

func (m *MockCardRegistry) FetchTemplates(ctx context.Context) ([]models.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Template), args.Error(1)
}

func (m *MockCardRegistry) FetchOwnedAssets(ctx context.Context, wallet string) ([]models.Asset, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Asset), args.Error(1)
}

// CapturingPublisher records emitted events for assertions in tests.
type CapturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *CapturingPublisher) Emit(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of everything emitted so far.
func (p *CapturingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// EventsOfType returns the emitted events matching the given type.
func (p *CapturingPublisher) EventsOfType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []events.Event
	for _, event := range p.events {
		if event.Type() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
