package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/rentkit/payflow/internal/identity/domain"
	pkgdb "github.com/rentkit/payflow/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.ExternalAccount) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO external_accounts (id, user_id, provider, buyer_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, buyer_id) DO NOTHING`,
		account.ID,
		account.UserID,
		account.Provider,
		account.BuyerID,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if res.Error != nil {
		// dialects that translate the conflict into an error instead of
		// honoring DO NOTHING still count as a lost insert race
		if pkgdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByBuyerID(ctx context.Context, db *gorm.DB, provider, buyerID string) (*domain.ExternalAccount, error) {
	var account domain.ExternalAccount
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM external_accounts WHERE provider = ? AND buyer_id = ? LIMIT 1`,
		provider,
		buyerID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, provider string, userID snowflake.ID) (*domain.ExternalAccount, error) {
	var account domain.ExternalAccount
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM external_accounts WHERE provider = ? AND user_id = ? LIMIT 1`,
		provider,
		userID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}
