// Package storage persists the catalog and the deal ledger behind gorm.
// Postgres backs production; the sqlite driver serves tests and local runs.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// DealStatus enumerates the settlement lifecycle. Transitions are monotonic:
// PENDING may become PAID or EXPIRED, and neither terminal state ever
// changes again.
type DealStatus string

const (
	StatusPending DealStatus = "PENDING"
	StatusPaid    DealStatus = "PAID"
	StatusExpired DealStatus = "EXPIRED"
)

// Item is a sellable catalog entry. FloorPrice is the hidden minimum; it
// never leaves the engine process.
type Item struct {
	ID         string  `gorm:"primaryKey;size:64"`
	Name       string  `gorm:"size:256;not null"`
	BasePrice  float64 `gorm:"not null"`
	FloorPrice float64 `gorm:"not null"`
	Active     bool    `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Deal is one payment lock. PaymentMemo carries a unique index so two locks
// can never share a memo, which is what makes chain verification attributable
// to exactly one deal.
type Deal struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ItemID           string     `gorm:"size:64;index;not null"`
	ItemName         string     `gorm:"size:256"`
	BuyerDID         string     `gorm:"size:256;index"`
	FinalPrice       float64    `gorm:"not null"`
	CryptoAmount     float64    `gorm:"not null"`
	Currency         string     `gorm:"size:16;not null"`
	PaymentMemo      string     `gorm:"size:32;uniqueIndex;not null"`
	WalletAddress    string     `gorm:"size:64;not null"`
	Network          string     `gorm:"size:32;not null"`
	SecretCiphertext []byte     `gorm:"not null"`
	Status           DealStatus `gorm:"size:16;index;not null"`
	TransactionHash  *string    `gorm:"size:128"`
	BlockNumber      *string    `gorm:"size:32"`
	FromAddress      *string    `gorm:"size:64"`
	PaidAt           *time.Time
	ExpiresAt        time.Time `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
