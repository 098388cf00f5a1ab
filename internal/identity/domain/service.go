package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	LinkBuyer(ctx context.Context, db *gorm.DB, userID snowflake.ID, buyerID string) error
	LookupBuyer(ctx context.Context, db *gorm.DB, buyerID string) (snowflake.ID, error)
}
