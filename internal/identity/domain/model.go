package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ErrBuyerConflict reports a processor buyer id already bound to a
// different local user. Bindings are never overwritten.
var ErrBuyerConflict = errors.New("identity: buyer id already linked to another user")

// ExternalAccount binds a processor buyer identifier to exactly one local
// user. Created idempotently the first time a buyer id is observed.
type ExternalAccount struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	Provider  string       `json:"provider" gorm:"type:text;not null;uniqueIndex:idx_external_accounts_provider_buyer,priority:1"`
	BuyerID   string       `json:"buyer_id" gorm:"type:text;not null;uniqueIndex:idx_external_accounts_provider_buyer,priority:2"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (ExternalAccount) TableName() string { return "external_accounts" }

const ProviderAmazonPay = "amazon_pay"

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *ExternalAccount) (bool, error)
	FindByBuyerID(ctx context.Context, db *gorm.DB, provider, buyerID string) (*ExternalAccount, error)
	FindByUserID(ctx context.Context, db *gorm.DB, provider string, userID snowflake.ID) (*ExternalAccount, error)
}
