package service

import (
	"context"
	"fmt"

	"progressbot/models"
)

// rankService implements the RankService interface
type rankService struct {
	uowFactory UnitOfWorkFactory
}

// NewRankService creates a new rank service
func NewRankService(uowFactory UnitOfWorkFactory) RankService {
	return &rankService{
		uowFactory: uowFactory,
	}
}

func validateRankRef(guildID int64, ref models.RankRef) error {
	if guildID <= 0 {
		return fmt.Errorf("guild id must be positive, got %d", guildID)
	}
	if ref.IsRole() {
		if ref.RoleID <= 0 {
			return fmt.Errorf("role id must be positive, got %d", ref.RoleID)
		}
		return nil
	}
	if ref.Label == "" {
		return fmt.Errorf("rank label must not be empty")
	}
	return nil
}

// DefineRank upserts a rank by its identifier: an existing identifier gets
// its threshold replaced, a new one is created. Thresholds must be
// non-negative and unique within the guild.
func (s *rankService) DefineRank(ctx context.Context, guildID int64, ref models.RankRef, threshold int64) (*models.Rank, error) {
	if err := validateRankRef(guildID, ref); err != nil {
		return nil, err
	}
	if threshold < 0 {
		return nil, fmt.Errorf("threshold %d is negative: %w", threshold, ErrInvalidThreshold)
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The database enforces threshold uniqueness per guild; checking here
	// first turns the constraint violation into a caller-correctable error.
	existing, err := uow.RankRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank table: %w", err)
	}
	for _, other := range existing {
		if other.MinimumWordCount == threshold && other.Ref.Key() != ref.Key() {
			return nil, fmt.Errorf("threshold %d already used by rank %s: %w",
				threshold, other.Ref.Display(), ErrInvalidThreshold)
		}
	}

	rank := &models.Rank{
		GuildID:          guildID,
		Ref:              ref,
		MinimumWordCount: threshold,
	}

	if err := uow.RankRepository().Upsert(ctx, rank); err != nil {
		return nil, fmt.Errorf("failed to define rank: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rank, nil
}

// RemoveRank deletes a rank definition. Users currently holding the rank
// keep a dangling reference on their ledger; evaluation reports it as an
// unknown rank instead of erasing it.
func (s *rankService) RemoveRank(ctx context.Context, guildID int64, ref models.RankRef) error {
	if err := validateRankRef(guildID, ref); err != nil {
		return err
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RankRepository().Delete(ctx, ref); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ClearRanks deletes every rank definition in the guild. Ledgers are left
// alone.
func (s *rankService) ClearRanks(ctx context.Context, guildID int64) error {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RankRepository().Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear ranks: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRanks returns the guild's rank table sorted ascending by threshold.
func (s *rankService) ListRanks(ctx context.Context, guildID int64) ([]*models.Rank, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ranks, err := uow.RankRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranks: %w", err)
	}

	return ranks, nil
}
