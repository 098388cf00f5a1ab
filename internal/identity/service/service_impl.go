package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/rentkit/payflow/internal/clock"
	"github.com/rentkit/payflow/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("identity.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// LinkBuyer binds a processor buyer id to a local user. Creating an
// existing identical binding is a no-op; a buyer id bound to a different
// user returns ErrBuyerConflict and leaves bindings unchanged.
func (s *Service) LinkBuyer(ctx context.Context, db *gorm.DB, userID snowflake.ID, buyerID string) error {
	existing, err := s.repo.FindByBuyerID(ctx, db, domain.ProviderAmazonPay, buyerID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.UserID == userID {
			return nil
		}
		return domain.ErrBuyerConflict
	}

	now := s.clock.Now()
	account := &domain.ExternalAccount{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Provider:  domain.ProviderAmazonPay,
		BuyerID:   buyerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := s.repo.Insert(ctx, db, account)
	if err != nil {
		return err
	}
	if inserted {
		return nil
	}

	// lost an insert race; re-read and re-check ownership
	existing, err = s.repo.FindByBuyerID(ctx, db, domain.ProviderAmazonPay, buyerID)
	if err != nil {
		return err
	}
	if existing == nil || existing.UserID != userID {
		return domain.ErrBuyerConflict
	}
	return nil
}

// LookupBuyer returns the local user bound to a buyer id, or 0 when
// unbound.
func (s *Service) LookupBuyer(ctx context.Context, db *gorm.DB, buyerID string) (snowflake.ID, error) {
	account, err := s.repo.FindByBuyerID(ctx, db, domain.ProviderAmazonPay, buyerID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.UserID, nil
}
