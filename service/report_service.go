package service

import (
	"context"
	"fmt"

	"progressbot/events"
	"progressbot/models"
)

// reportService implements the ReportService interface
type reportService struct {
	uowFactory UnitOfWorkFactory
}

// NewReportService creates a new report service
func NewReportService(uowFactory UnitOfWorkFactory) ReportService {
	return &reportService{
		uowFactory: uowFactory,
	}
}

// Submit ingests one word-count report. The ledger mutation and the report
// append share a transaction, so evaluation never observes a report without
// its ledger update. The user's rank is not touched here; promotions only
// happen through explicit evaluation.
func (s *reportService) Submit(ctx context.Context, guildID, userID int64, expression string, note *string) (*models.Report, error) {
	arg, err := ParseWordCount(expression)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Lock the user's ledger row so concurrent submissions for the same user
	// serialize. A first-time submitter has no row yet; the upsert below
	// closes that window.
	entry, err := uow.LedgerRepository().GetByUserForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry: %w", err)
	}

	// A first report, absolute or relative, resolves against a prior total of 0.
	var priorTotal int64
	if entry != nil {
		priorTotal = entry.CurrentWordCount
	}
	newTotal := arg.ResolveTotal(priorTotal)

	if _, err := uow.LedgerRepository().UpsertTotal(ctx, userID, newTotal); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}

	reportID, err := uow.ReportRepository().NextReportID(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		GuildID:        guildID,
		ReportID:       reportID,
		UserID:         userID,
		TotalWordCount: newTotal,
		Note:           note,
	}

	if err := uow.ReportRepository().Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to record report: %w", err)
	}

	uow.EventBus().Publish(events.ReportSubmittedEvent{
		GuildID:        guildID,
		UserID:         userID,
		ReportID:       reportID,
		TotalWordCount: newTotal,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return report, nil
}

// List returns reports matching the filter in reverse-chronological order.
func (s *reportService) List(ctx context.Context, guildID int64, filter ReportFilter) ([]*models.Report, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reports, err := uow.ReportRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return reports, nil
}

// GetLedgerEntry returns a user's running totals, or nil if the user has
// never submitted a report in the guild.
func (s *reportService) GetLedgerEntry(ctx context.Context, guildID, userID int64) (*models.LedgerEntry, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}
