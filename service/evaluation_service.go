package service

import (
	"context"
	"fmt"

	"progressbot/events"
	"progressbot/models"
)

// evaluationService implements the EvaluationService interface
type evaluationService struct {
	uowFactory UnitOfWorkFactory
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(uowFactory UnitOfWorkFactory) EvaluationService {
	return &evaluationService{
		uowFactory: uowFactory,
	}
}

// EvaluateUser determines one user's correct rank from max_word_count and
// applies a promotion if one is due. Evaluation only ever moves a rank
// forward, so demotion is structurally impossible. A user with no ledger
// entry yields an empty standing.
func (s *evaluationService) EvaluateUser(ctx context.Context, guildID, userID int64) (*models.RankStanding, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	standing, promotion, err := evaluateLocked(ctx, uow, guildID, userID)
	if err != nil {
		return nil, err
	}
	if standing == nil {
		return &models.RankStanding{}, nil
	}

	if promotion != nil {
		uow.EventBus().Publish(events.RankPromotionEvent{
			GuildID:      guildID,
			UserID:       userID,
			PreviousRank: promotion.PreviousRank,
			NewRank:      promotion.NewRank,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return standing, nil
}

// EvaluateGuild evaluates every user in the guild. Each user gets their own
// transaction, so a guild-wide run never holds more than one ledger row lock
// at a time and cannot block unrelated submissions. Promotions come back in
// user-ID order; a second run with no new reports returns none.
func (s *evaluationService) EvaluateGuild(ctx context.Context, guildID int64) ([]*models.Promotion, error) {
	listUow := s.uowFactory.CreateForGuild(guildID)
	if err := listUow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	entries, err := listUow.LedgerRepository().GetAllByGuild(ctx)
	listUow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	var promotions []*models.Promotion
	for _, entry := range entries {
		promotion, err := s.evaluateOne(ctx, guildID, entry.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate user %d: %w", entry.UserID, err)
		}
		if promotion != nil {
			promotions = append(promotions, promotion)
		}
	}

	return promotions, nil
}

func (s *evaluationService) evaluateOne(ctx context.Context, guildID, userID int64) (*models.Promotion, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	_, promotion, err := evaluateLocked(ctx, uow, guildID, userID)
	if err != nil {
		return nil, err
	}

	if promotion != nil {
		uow.EventBus().Publish(events.RankPromotionEvent{
			GuildID:      guildID,
			UserID:       userID,
			PreviousRank: promotion.PreviousRank,
			NewRank:      promotion.NewRank,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return promotion, nil
}

// evaluateLocked runs one user's evaluation inside the unit of work's
// transaction, holding the ledger row lock. The eligible rank is the one
// with the greatest threshold not exceeding max_word_count; the comparison
// against the held rank uses thresholds, with a missing or dangling rank
// treated as lower than everything. Returns a nil standing when the user has
// no ledger entry.
func evaluateLocked(ctx context.Context, uow UnitOfWork, guildID, userID int64) (*models.RankStanding, *models.Promotion, error) {
	entry, err := uow.LedgerRepository().GetByUserForUpdate(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ledger entry: %w", err)
	}
	if entry == nil {
		return nil, nil, nil
	}

	ranks, err := uow.RankRepository().GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rank table: %w", err)
	}

	// Ranks arrive sorted ascending; the last threshold the user's peak
	// clears is the eligible rank. Evaluation is driven by max_word_count,
	// never the current count, so negative reports cannot demote anyone.
	var eligible *models.Rank
	for _, rank := range ranks {
		if rank.MinimumWordCount > entry.MaxWordCount {
			break
		}
		eligible = rank
	}

	standing := &models.RankStanding{Entry: entry}

	// Thresholds are non-negative, so -1 stands in for "no rank held".
	currentThreshold := int64(-1)
	if entry.CurrentRank != nil {
		for _, rank := range ranks {
			if rank.Ref.Key() == entry.CurrentRank.Key() {
				standing.Current = rank
				currentThreshold = rank.MinimumWordCount
				break
			}
		}
		if standing.Current == nil {
			// The held rank was removed from the table; report it rather
			// than erase it.
			standing.Dangling = entry.CurrentRank
		}
	}

	if eligible == nil || eligible.MinimumWordCount <= currentThreshold {
		return standing, nil, nil
	}

	if err := uow.LedgerRepository().UpdateRank(ctx, userID, eligible.Ref.Key()); err != nil {
		return nil, nil, fmt.Errorf("failed to apply promotion: %w", err)
	}

	promotion := &models.Promotion{
		GuildID:      guildID,
		UserID:       userID,
		PreviousRank: entry.CurrentRank,
		NewRank:      *eligible,
	}

	standing.Promoted = true
	standing.Current = eligible
	standing.Dangling = nil

	return standing, promotion, nil
}
