// Package service defines the interfaces modules expose to one another.
package service

import "context"

// Credit is one custody-to-account transfer in a batch
type Credit struct {
	Account int64
	Amount  int64
}

// WalletService is the external fungible-token ledger the engine holds custody
// against. Debit pulls a stake from an account into custody; Credit pays out of
// custody. Any error aborts the enclosing engine operation. CreditBatch must be
// atomic: either every credit lands or none do.
type WalletService interface {
	Balance(ctx context.Context, account int64) (int64, error)
	Debit(ctx context.Context, account int64, amount int64, reason string) (int64, error)
	Credit(ctx context.Context, account int64, amount int64, reason string) (int64, error)
	CreditBatch(ctx context.Context, credits []Credit, reason string) error
}
