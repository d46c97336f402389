package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDuplicateMemo reports a payment memo collision on deal creation.
var ErrDuplicateMemo = errors.New("payment memo already in use")

// Store wraps the database handle for catalog and deal access.
type Store struct {
	db *gorm.DB
}

// Open connects to a Postgres DSN and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newStore(db)
}

// OpenSQLite opens a file or in-memory sqlite database. Used by tests and
// local single-process runs.
func OpenSQLite(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite gives every pooled connection its own view of an in-memory
	// database; a single connection keeps reads and writes coherent.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Item{}, &Deal{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GetItem fetches a catalog entry. A missing id returns (nil, nil) so callers
// can distinguish absence from infrastructure failure.
func (s *Store) GetItem(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", id, err)
	}
	return &item, nil
}

// UpsertItem writes a catalog entry, used by seeding and tests.
func (s *Store) UpsertItem(ctx context.Context, item *Item) error {
	return s.db.WithContext(ctx).Save(item).Error
}

// CreateDeal inserts a new PENDING deal. A memo collision surfaces as
// ErrDuplicateMemo so the caller can regenerate and retry.
func (s *Store) CreateDeal(ctx context.Context, deal *Deal) error {
	err := s.db.WithContext(ctx).Create(deal).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
		return fmt.Errorf("%w: %s", ErrDuplicateMemo, deal.PaymentMemo)
	}
	return fmt.Errorf("create deal: %w", err)
}

// GetDeal loads a deal by id, (nil, nil) when absent.
func (s *Store) GetDeal(ctx context.Context, id uuid.UUID) (*Deal, error) {
	var deal Deal
	err := s.db.WithContext(ctx).First(&deal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load deal %s: %w", id, err)
	}
	return &deal, nil
}

// MarkPaid promotes a PENDING deal to PAID with its on-chain proof. The
// conditional update makes settlement at-most-once: only one concurrent
// caller observes rows affected, everyone else loses the race and reloads.
func (s *Store) MarkPaid(ctx context.Context, id uuid.UUID, txHash, blockNumber, fromAddress string, paidAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Deal{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":           StatusPaid,
			"transaction_hash": txHash,
			"block_number":     blockNumber,
			"from_address":     fromAddress,
			"paid_at":          paidAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark deal %s paid: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkExpired promotes a PENDING deal to EXPIRED. Idempotent under the same
// conditional-update rule as MarkPaid: a deal that already left PENDING is
// untouched.
func (s *Store) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Deal{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusExpired)
	if res.Error != nil {
		return false, fmt.Errorf("mark deal %s expired: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
