package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"progressbot/events"
	"progressbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportService_Submit_FirstAbsoluteReport(t *testing.T) {
	ctx := context.Background()

	// Setup mocks
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockReportRepo := new(MockReportRepository)
	recorder := &RecordingEventPublisher{}

	mockUoW.SetRepositories(mockLedgerRepo, mockReportRepo, nil, nil)
	mockUoW.SetEventPublisher(recorder)

	service := NewReportService(mockFactory)

	// Mock expectations
	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// First-time submitter has no ledger row
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(nil, nil)
	mockLedgerRepo.On("UpsertTotal", ctx, int64(1), int64(500)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 500,
		MaxWordCount:     500,
	}, nil)
	mockReportRepo.On("NextReportID", ctx).Return(int32(1), nil)
	mockReportRepo.On("Create", ctx, mock.MatchedBy(func(r *models.Report) bool {
		return r.GuildID == 100 && r.ReportID == 1 && r.UserID == 1 && r.TotalWordCount == 500
	})).Return(nil)

	report, err := service.Submit(ctx, 100, 1, "500", nil)

	require.NoError(t, err)
	assert.Equal(t, int32(1), report.ReportID)
	assert.Equal(t, int64(500), report.TotalWordCount)

	require.Len(t, recorder.Events, 1)
	event, ok := recorder.Events[0].(events.ReportSubmittedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(500), event.TotalWordCount)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
	mockReportRepo.AssertExpectations(t)
	mockLedgerRepo.AssertNotCalled(t, "UpdateRank")
}

func TestReportService_Submit_FirstRelativeReport(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockReportRepo := new(MockReportRepository)

	mockUoW.SetRepositories(mockLedgerRepo, mockReportRepo, nil, nil)

	service := NewReportService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// A relative first report resolves against a baseline of zero.
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(nil, nil)
	mockLedgerRepo.On("UpsertTotal", ctx, int64(1), int64(500)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 500,
		MaxWordCount:     500,
	}, nil)
	mockReportRepo.On("NextReportID", ctx).Return(int32(1), nil)
	mockReportRepo.On("Create", ctx, mock.Anything).Return(nil)

	report, err := service.Submit(ctx, 100, 1, "+500", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(500), report.TotalWordCount)

	mockLedgerRepo.AssertExpectations(t)
}

func TestReportService_Submit_RelativeAgainstPriorTotal(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockReportRepo := new(MockReportRepository)

	mockUoW.SetRepositories(mockLedgerRepo, mockReportRepo, nil, nil)

	service := NewReportService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 500,
		MaxWordCount:     500,
	}, nil)
	// 500 - 200 = 300; the repository keeps max_word_count at 500.
	mockLedgerRepo.On("UpsertTotal", ctx, int64(1), int64(300)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 300,
		MaxWordCount:     500,
	}, nil)
	mockReportRepo.On("NextReportID", ctx).Return(int32(2), nil)
	mockReportRepo.On("Create", ctx, mock.MatchedBy(func(r *models.Report) bool {
		return r.ReportID == 2 && r.TotalWordCount == 300
	})).Return(nil)

	report, err := service.Submit(ctx, 100, 1, "-200", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(300), report.TotalWordCount)

	mockLedgerRepo.AssertExpectations(t)
	mockReportRepo.AssertExpectations(t)
}

func TestReportService_Submit_NegativeDeltaClampsAtZero(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockReportRepo := new(MockReportRepository)

	mockUoW.SetRepositories(mockLedgerRepo, mockReportRepo, nil, nil)

	service := NewReportService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 300,
		MaxWordCount:     550,
	}, nil)
	mockLedgerRepo.On("UpsertTotal", ctx, int64(1), int64(0)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 0,
		MaxWordCount:     550,
	}, nil)
	mockReportRepo.On("NextReportID", ctx).Return(int32(5), nil)
	mockReportRepo.On("Create", ctx, mock.Anything).Return(nil)

	report, err := service.Submit(ctx, 100, 1, "-1,000", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(0), report.TotalWordCount)

	mockLedgerRepo.AssertExpectations(t)
}

func TestReportService_Submit_InvalidExpression(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewReportService(mockFactory)

	report, err := service.Submit(ctx, 100, 1, "abcshdf", nil)

	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Nil(t, report)

	// Parsing fails before any transaction is opened.
	mockFactory.AssertNotCalled(t, "CreateForGuild")
}

func TestReportService_Submit_SequenceExhausted(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockReportRepo := new(MockReportRepository)

	mockUoW.SetRepositories(mockLedgerRepo, mockReportRepo, nil, nil)

	service := NewReportService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 500,
		MaxWordCount:     500,
	}, nil)
	mockLedgerRepo.On("UpsertTotal", ctx, int64(1), int64(600)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 600,
		MaxWordCount:     600,
	}, nil)
	mockReportRepo.On("NextReportID", ctx).Return(int32(0),
		fmt.Errorf("report sequence for guild %d: %w", 100, ErrSequenceExhausted))

	report, err := service.Submit(ctx, 100, 1, "+100", nil)

	assert.ErrorIs(t, err, ErrSequenceExhausted)
	assert.Nil(t, report)

	// The whole transaction rolls back; nothing is committed.
	mockUoW.AssertNotCalled(t, "Commit")
	mockReportRepo.AssertNotCalled(t, "Create")
	mockUoW.AssertExpectations(t)
}

func TestReportService_List_PassesFilterThrough(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockReportRepo := new(MockReportRepository)

	mockUoW.SetRepositories(nil, mockReportRepo, nil, nil)

	service := NewReportService(mockFactory)

	userID := int64(1)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := ReportFilter{UserID: &userID, From: &from, Limit: 10}

	expected := []*models.Report{
		{GuildID: 100, ReportID: 2, UserID: 1, TotalWordCount: 300},
		{GuildID: 100, ReportID: 1, UserID: 1, TotalWordCount: 500},
	}

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockReportRepo.On("List", ctx, filter).Return(expected, nil)

	reports, err := service.List(ctx, 100, filter)

	require.NoError(t, err)
	assert.Equal(t, expected, reports)

	mockReportRepo.AssertExpectations(t)
}

func TestReportService_GetLedgerEntry_Missing(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, nil, nil)

	service := NewReportService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockLedgerRepo.On("GetByUser", ctx, int64(42)).Return(nil, nil)

	entry, err := service.GetLedgerEntry(ctx, 100, 42)

	require.NoError(t, err)
	assert.Nil(t, entry)
}
