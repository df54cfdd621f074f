// Package wallet implements the ledger the escrow engine holds custody against.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/builders-garden/squabble-engine/pkg/service"
)

// ErrInsufficientFunds is returned when a debit exceeds the account balance
var ErrInsufficientFunds = errors.New("insufficient funds")

// MockService implements service.WalletService in memory. Besides balances it
// tracks the aggregate custody amount, which the conservation tests compare
// against the sum of staked totals. Failures are injectable per account, and a
// credit hook lets tests simulate a token with callback behavior.
type MockService struct {
	mu          sync.RWMutex
	balances    map[int64]int64
	custody     int64
	failDebits  map[int64]struct{}
	failCredits map[int64]struct{}

	// CreditHook, when set, runs before each credit is applied. Used to
	// exercise reentrancy: the hook may call back into the engine.
	CreditHook func(account, amount int64)
}

// NewMockService creates a new mock wallet service
func NewMockService() *MockService {
	return &MockService{
		balances:    make(map[int64]int64),
		failDebits:  make(map[int64]struct{}),
		failCredits: make(map[int64]struct{}),
	}
}

// SetBalance sets the balance for an account (for testing)
func (s *MockService) SetBalance(account, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] = balance
}

// FailDebits makes every debit for the account fail until cleared
func (s *MockService) FailDebits(account int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDebits[account] = struct{}{}
}

// FailCredits makes every credit for the account fail until cleared
func (s *MockService) FailCredits(account int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCredits[account] = struct{}{}
}

// ClearFailures removes all injected failures
func (s *MockService) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDebits = make(map[int64]struct{})
	s.failCredits = make(map[int64]struct{})
}

// CustodyBalance returns the aggregate amount held in custody
func (s *MockService) CustodyBalance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custody
}

// Balance returns the account balance
func (s *MockService) Balance(ctx context.Context, account int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

// Debit moves amount from the account into custody
func (s *MockService) Debit(ctx context.Context, account, amount int64, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, fail := s.failDebits[account]; fail {
		return 0, fmt.Errorf("debit rejected for account %d", account)
	}
	balance := s.balances[account]
	if balance < amount {
		return 0, fmt.Errorf("%w: account %d has %d, needs %d", ErrInsufficientFunds, account, balance, amount)
	}

	newBalance := balance - amount
	s.balances[account] = newBalance
	s.custody += amount
	return newBalance, nil
}

// Credit moves amount from custody to the account
func (s *MockService) Credit(ctx context.Context, account, amount int64, reason string) (int64, error) {
	if hook := s.creditHook(); hook != nil {
		hook(account, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, fail := s.failCredits[account]; fail {
		return 0, fmt.Errorf("credit rejected for account %d", account)
	}

	newBalance := s.balances[account] + amount
	s.balances[account] = newBalance
	s.custody -= amount
	return newBalance, nil
}

// CreditBatch applies all credits or none. The whole batch is validated
// against injected failures before any balance moves.
func (s *MockService) CreditBatch(ctx context.Context, credits []service.Credit, reason string) error {
	if hook := s.creditHook(); hook != nil {
		for _, c := range credits {
			hook(c.Account, c.Amount)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range credits {
		if _, fail := s.failCredits[c.Account]; fail {
			return fmt.Errorf("credit rejected for account %d", c.Account)
		}
	}
	for _, c := range credits {
		s.balances[c.Account] += c.Amount
		s.custody -= c.Amount
	}
	return nil
}

func (s *MockService) creditHook() func(account, amount int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CreditHook
}
