package usecase

import (
	"context"
	"sync"

	"github.com/builders-garden/squabble-engine/internal/config"
	"github.com/builders-garden/squabble-engine/internal/modules/access"
	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	"github.com/builders-garden/squabble-engine/internal/modules/escrow/repository/memory"
	"github.com/builders-garden/squabble-engine/internal/modules/wallet"
	"github.com/builders-garden/squabble-engine/pkg/logger"
)

func init() {
	// Init logger for all tests in this package
	logger.Init(logger.Config{Level: "error", Format: "console"})
}

const adminID int64 = 99

func testRules() config.GameRules {
	return config.GameRules{
		MaxStake:      1000,
		MaxPlayers:    4,
		MinPlayers:    2,
		AutoAssignIDs: false,
		OpenCreation:  true,
	}
}

// TestPublisher collects published events
type TestPublisher struct {
	mu     sync.Mutex
	events []*domain.GameEvent
}

func (p *TestPublisher) Publish(ctx context.Context, event *domain.GameEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *TestPublisher) Events() []*domain.GameEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.GameEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *TestPublisher) Last() *domain.GameEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// MockSettlementRepository collects settlement history rows
type MockSettlementRepository struct {
	records []*domain.SettlementRecord
	payouts []*domain.PayoutOrder
}

func (m *MockSettlementRepository) Create(ctx context.Context, record *domain.SettlementRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *MockSettlementRepository) BatchCreatePayouts(ctx context.Context, orders []*domain.PayoutOrder) error {
	m.payouts = append(m.payouts, orders...)
	return nil
}

type testEngine struct {
	uc          *EscrowUseCase
	games       *memory.GameRepository
	wallet      *wallet.MockService
	guard       *access.Guard
	publisher   *TestPublisher
	settlements *MockSettlementRepository
}

func newTestEngine(rules config.GameRules) *testEngine {
	e := &testEngine{
		games:       memory.NewGameRepository(),
		wallet:      wallet.NewMockService(),
		guard:       access.NewGuard([]int64{adminID}),
		publisher:   &TestPublisher{},
		settlements: &MockSettlementRepository{},
	}
	e.uc = NewEscrowUseCase(e.games, e.wallet, e.guard, e.publisher, e.settlements, rules)
	return e
}

// fund gives each account a starting balance
func (e *testEngine) fund(balance int64, accounts ...int64) {
	for _, a := range accounts {
		e.wallet.SetBalance(a, balance)
	}
}

// totalStaked sums the staked totals over all games
func (e *testEngine) totalStaked(ctx context.Context) int64 {
	count, _ := e.games.Count(ctx)
	games, _ := e.games.List(ctx, 0, count)
	var sum int64
	for _, g := range games {
		sum += g.TotalStaked
	}
	return sum
}
