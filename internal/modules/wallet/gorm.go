package wallet

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/builders-garden/squabble-engine/pkg/service"
)

// CustodyAccountID is the reserved account that holds all pooled stakes
const CustodyAccountID int64 = 1

// Account is a ledger account row
type Account struct {
	AccountID int64     `gorm:"primaryKey" json:"account_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Account) TableName() string {
	return "wallet_accounts"
}

// JournalEntry records one transfer between an account and custody
type JournalEntry struct {
	EntryID   int64     `gorm:"primaryKey;autoIncrement" json:"entry_id"`
	Account   int64     `gorm:"not null;index:idx_wallet_journal_account" json:"account"`
	Amount    int64     `gorm:"not null" json:"amount"` // negative = debit into custody
	Reason    string    `gorm:"type:varchar(64);not null" json:"reason"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName overrides the table name
func (JournalEntry) TableName() string {
	return "wallet_journal"
}

// DBService implements service.WalletService on a relational ledger. Every
// transfer runs inside a gorm transaction that moves the balance and appends a
// journal entry, so a failed transfer leaves nothing behind and CreditBatch is
// genuinely all-or-nothing.
type DBService struct {
	db *gorm.DB
}

// NewDBService creates a new database-backed wallet service
func NewDBService(db *gorm.DB) *DBService {
	return &DBService{db: db}
}

// Migrate creates the wallet tables and the custody account
func (s *DBService) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Account{}, &JournalEntry{}); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where(Account{AccountID: CustodyAccountID}).
		FirstOrCreate(&Account{AccountID: CustodyAccountID}).Error
}

// Balance returns the account balance
func (s *DBService) Balance(ctx context.Context, account int64) (int64, error) {
	var acc Account
	err := s.db.WithContext(ctx).First(&acc, "account_id = ?", account).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Debit moves amount from the account into custody
func (s *DBService) Debit(ctx context.Context, account, amount int64, reason string) (int64, error) {
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if newBalance, err = move(tx, account, -amount, reason); err != nil {
			return err
		}
		_, err = move(tx, CustodyAccountID, amount, reason)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit moves amount from custody to the account
func (s *DBService) Credit(ctx context.Context, account, amount int64, reason string) (int64, error) {
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := move(tx, CustodyAccountID, -amount, reason); err != nil {
			return err
		}
		var err error
		newBalance, err = move(tx, account, amount, reason)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CreditBatch applies every credit inside a single transaction
func (s *DBService) CreditBatch(ctx context.Context, credits []service.Credit, reason string) error {
	if len(credits) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range credits {
			if _, err := move(tx, CustodyAccountID, -c.Amount, reason); err != nil {
				return err
			}
			if _, err := move(tx, c.Account, c.Amount, reason); err != nil {
				return err
			}
		}
		return nil
	})
}

// move adjusts one account balance inside tx and journals the change
func move(tx *gorm.DB, account, delta int64, reason string) (int64, error) {
	var acc Account
	err := tx.First(&acc, "account_id = ?", account).Error
	if err == gorm.ErrRecordNotFound {
		acc = Account{AccountID: account}
		if err := tx.Create(&acc).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	newBalance := acc.Balance + delta
	if newBalance < 0 {
		return 0, fmt.Errorf("%w: account %d has %d, needs %d", ErrInsufficientFunds, account, acc.Balance, -delta)
	}

	if err := tx.Model(&Account{}).
		Where("account_id = ?", account).
		Updates(map[string]interface{}{"balance": newBalance, "updated_at": time.Now()}).Error; err != nil {
		return 0, err
	}

	entry := JournalEntry{Account: account, Amount: delta, Reason: reason, CreatedAt: time.Now()}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}
	return newBalance, nil
}
