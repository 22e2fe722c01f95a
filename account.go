package main

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a counterparty (customer or supplier) card. Balance and
// BalancePolarity are a cache of the chronologically-last ledger entry's
// snapshot; the recomputation engine is the only writer of those columns.
type Account struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code            string          `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Name            string          `gorm:"column:name;not null" json:"name"`
	Phone           string          `gorm:"column:phone" json:"phone"`
	City            string          `gorm:"column:city" json:"city"`
	TaxID           string          `gorm:"column:tax_id" json:"tax_id"`
	Balance         decimal.Decimal `gorm:"column:balance;type:decimal(20,4);not null" json:"balance"`
	BalancePolarity Polarity        `gorm:"column:balance_polarity;type:varchar(1);not null" json:"balance_polarity"`
	Suspect         bool            `gorm:"column:suspect;not null" json:"suspect"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountProfile carries the fields the ledger engine never looks at.
type AccountProfile struct {
	Name  string
	Phone string
	City  string
	TaxID string
}

// AccountRegistry is the single entry point for account CRUD and for every
// ledger mutation on an account.
type AccountRegistry struct {
	db     *gorm.DB
	ledger *Ledger
	logger Logger
}

func NewAccountRegistry(db *gorm.DB, ledger *Ledger, logger Logger) *AccountRegistry {
	return &AccountRegistry{db: db, ledger: ledger, logger: logger.NewSystem("accounts")}
}

// Create opens a new account with a zero receivable balance.
func (r *AccountRegistry) Create(code string, profile AccountProfile) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, Errorf(CodeInvalidInput, "account code is required")
	}
	if strings.TrimSpace(profile.Name) == "" {
		return nil, Errorf(CodeInvalidInput, "account name is required")
	}

	account := &Account{
		ID:              uuid.NewString(),
		Code:            code,
		Name:            profile.Name,
		Phone:           profile.Phone,
		City:            profile.City,
		TaxID:           profile.TaxID,
		Balance:         decimal.Zero,
		BalancePolarity: PolarityReceivable,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Account{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return Errorf(CodeDuplicateCode, "account code %q already exists", code)
		}
		return tx.Create(account).Error
	})
	if err != nil {
		var le LedgerError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, Errorf(CodeStorageFailure, "failed to create account")
	}

	r.logger.Info("account created", "id", account.ID, "code", account.Code)
	return account, nil
}

// Get returns an account. While the account's ledger is flagged suspect the
// cached balance cannot be trusted, so the read is refused until a repair
// pass has run.
func (r *AccountRegistry) Get(accountID string) (*Account, error) {
	var account Account
	err := r.db.Take(&account, "id = ?", accountID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, Errorf(CodeNotFound, "account %s not found", accountID)
	}
	if err != nil {
		return nil, Errorf(CodeStorageFailure, "failed to load account")
	}
	if account.Suspect {
		return nil, Errorf(CodeLedgerSuspect, "ledger of account %s is suspect, run a repair pass first", accountID)
	}
	return &account, nil
}

// GetByCode looks an account up by its human-entered code.
func (r *AccountRegistry) GetByCode(code string) (*Account, error) {
	var account Account
	err := r.db.Take(&account, "code = ?", code).Error
	if err == gorm.ErrRecordNotFound {
		return nil, Errorf(CodeNotFound, "account with code %q not found", code)
	}
	if err != nil {
		return nil, Errorf(CodeStorageFailure, "failed to load account")
	}
	return &account, nil
}

// List returns accounts ordered by code.
func (r *AccountRegistry) List(opts *ListOptions) ([]Account, error) {
	q := applyListOptions(r.db.Model(&Account{}), "code", SortTypeAscending, opts)
	var accounts []Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, Errorf(CodeStorageFailure, "failed to list accounts")
	}
	return accounts, nil
}

// Delete removes an account. An account that still has ledger entries is
// only deleted when cascade is set, in which case the entries go first.
func (r *AccountRegistry) Delete(accountID string, cascade bool) (bool, error) {
	var account Account
	err := r.db.Take(&account, "id = ?", accountID).Error
	if err == gorm.ErrRecordNotFound {
		return false, Errorf(CodeNotFound, "account %s not found", accountID)
	}
	if err != nil {
		return false, Errorf(CodeStorageFailure, "failed to load account")
	}

	unlock := r.ledger.lockOwner(OwnerAccount, accountID)
	defer unlock()

	var count int64
	if err := ownerEntries(r.db, OwnerAccount, accountID).Count(&count).Error; err != nil {
		return false, Errorf(CodeStorageFailure, "failed to count ledger entries")
	}
	if count > 0 && !cascade {
		return false, Errorf(CodeNonEmptyLedger, "account %s has transactions, delete them first or request cascade", account.Code)
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if count > 0 {
			if err := purgeOwner(tx, OwnerAccount, accountID); err != nil {
				return err
			}
		}
		return tx.Delete(&Account{}, "id = ?", accountID).Error
	})
	if err != nil {
		return false, Errorf(CodeStorageFailure, "failed to delete account")
	}

	r.logger.Info("account deleted", "id", accountID, "code", account.Code, "cascade", cascade, "entries", count)
	return true, nil
}

// PostEntry posts one movement to the account's ledger.
func (r *AccountRegistry) PostEntry(accountID string, date time.Time, debit, credit decimal.Decimal, description string, kind EntryKind) (*LedgerEntry, error) {
	var count int64
	if err := r.db.Model(&Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return nil, Errorf(CodeStorageFailure, "failed to load account")
	}
	if count == 0 {
		return nil, Errorf(CodeNotFound, "account %s not found", accountID)
	}
	return r.ledger.PostEntry(OwnerAccount, accountID, date, debit, credit, description, kind)
}

// DeleteEntry removes one movement. The false return without an error means
// the owning account was busy with another mutation; retryable.
func (r *AccountRegistry) DeleteEntry(entryID uint) (bool, error) {
	return r.ledger.DeleteEntry(entryID)
}

// Entries lists the account's ledger in walk order.
func (r *AccountRegistry) Entries(accountID string, opts *ListOptions) ([]LedgerEntry, error) {
	return r.ledger.Entries(OwnerAccount, accountID, opts)
}
