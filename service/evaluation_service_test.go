package service

import (
	"context"
	"testing"

	"progressbot/events"
	"progressbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankTable(guildID int64) []*models.Rank {
	return []*models.Rank{
		{GuildID: guildID, Ref: models.LabelRef("novice"), MinimumWordCount: 0},
		{GuildID: guildID, Ref: models.LabelRef("apprentice"), MinimumWordCount: 1000},
		{GuildID: guildID, Ref: models.LabelRef("master"), MinimumWordCount: 5000},
	}
}

func TestEvaluationService_EvaluateUser_PromotesToHighestCleared(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)
	recorder := &RecordingEventPublisher{}

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)
	mockUoW.SetEventPublisher(recorder)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// 1200 clears apprentice (1000) but not master (5000).
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 1200,
		MaxWordCount:     1200,
	}, nil)
	mockRankRepo.On("GetAll", ctx).Return(rankTable(100), nil)
	mockLedgerRepo.On("UpdateRank", ctx, int64(1), "label:apprentice").Return(nil)

	standing, err := service.EvaluateUser(ctx, 100, 1)

	require.NoError(t, err)
	assert.True(t, standing.Promoted)
	require.NotNil(t, standing.Current)
	assert.Equal(t, models.LabelRef("apprentice"), standing.Current.Ref)
	assert.Nil(t, standing.Dangling)

	require.Len(t, recorder.Events, 1)
	event, ok := recorder.Events[0].(events.RankPromotionEvent)
	require.True(t, ok)
	assert.Nil(t, event.PreviousRank)
	assert.Equal(t, models.LabelRef("apprentice"), event.NewRank.Ref)

	mockLedgerRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestEvaluationService_EvaluateUser_NeverDemotes(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// The current count collapsed but the peak still clears master, and the
	// user already holds it. Nothing moves.
	held := models.LabelRef("master")
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 0,
		MaxWordCount:     6000,
		CurrentRank:      &held,
	}, nil)
	mockRankRepo.On("GetAll", ctx).Return(rankTable(100), nil)

	standing, err := service.EvaluateUser(ctx, 100, 1)

	require.NoError(t, err)
	assert.False(t, standing.Promoted)
	require.NotNil(t, standing.Current)
	assert.Equal(t, held, standing.Current.Ref)

	mockLedgerRepo.AssertNotCalled(t, "UpdateRank")
}

func TestEvaluationService_EvaluateUser_Idempotent(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	held := models.LabelRef("apprentice")
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 1200,
		MaxWordCount:     1200,
		CurrentRank:      &held,
	}, nil)
	mockRankRepo.On("GetAll", ctx).Return(rankTable(100), nil)

	standing, err := service.EvaluateUser(ctx, 100, 1)

	require.NoError(t, err)
	assert.False(t, standing.Promoted)
	mockLedgerRepo.AssertNotCalled(t, "UpdateRank")
}

func TestEvaluationService_EvaluateUser_DanglingRankReported(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// The held rank was removed from the table and no remaining rank is
	// cleared. The stale reference is surfaced, not erased.
	held := models.LabelRef("veteran")
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 800,
		MaxWordCount:     800,
		CurrentRank:      &held,
	}, nil)
	mockRankRepo.On("GetAll", ctx).Return([]*models.Rank{
		{GuildID: 100, Ref: models.LabelRef("master"), MinimumWordCount: 5000},
	}, nil)

	standing, err := service.EvaluateUser(ctx, 100, 1)

	require.NoError(t, err)
	assert.False(t, standing.Promoted)
	assert.Nil(t, standing.Current)
	require.NotNil(t, standing.Dangling)
	assert.Equal(t, held, *standing.Dangling)

	mockLedgerRepo.AssertNotCalled(t, "UpdateRank")
}

func TestEvaluationService_EvaluateUser_DanglingRankStillPromotes(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// A dangling rank counts as no rank, so any cleared rank is a promotion.
	held := models.LabelRef("veteran")
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID:          100,
		UserID:           1,
		CurrentWordCount: 1200,
		MaxWordCount:     1200,
		CurrentRank:      &held,
	}, nil)
	mockRankRepo.On("GetAll", ctx).Return(rankTable(100), nil)
	mockLedgerRepo.On("UpdateRank", ctx, int64(1), "label:apprentice").Return(nil)

	standing, err := service.EvaluateUser(ctx, 100, 1)

	require.NoError(t, err)
	assert.True(t, standing.Promoted)
	assert.Nil(t, standing.Dangling)
	require.NotNil(t, standing.Current)
	assert.Equal(t, models.LabelRef("apprentice"), standing.Current.Ref)

	mockLedgerRepo.AssertExpectations(t)
}

func TestEvaluationService_EvaluateUser_NoLedgerEntry(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(42)).Return(nil, nil)

	standing, err := service.EvaluateUser(ctx, 100, 42)

	require.NoError(t, err)
	require.NotNil(t, standing)
	assert.Nil(t, standing.Entry)
	assert.Nil(t, standing.Current)
	assert.False(t, standing.Promoted)

	mockRankRepo.AssertNotCalled(t, "GetAll")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestEvaluationService_EvaluateGuild(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)
	mockRankRepo := new(MockRankRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, mockRankRepo, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	heldNovice := models.LabelRef("novice")
	// User 1 is due a promotion; user 2 already holds the right rank.
	mockLedgerRepo.On("GetAllByGuild", ctx).Return([]*models.LedgerEntry{
		{GuildID: 100, UserID: 1, CurrentWordCount: 1200, MaxWordCount: 1200},
		{GuildID: 100, UserID: 2, CurrentWordCount: 100, MaxWordCount: 100, CurrentRank: &heldNovice},
	}, nil)
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(1)).Return(&models.LedgerEntry{
		GuildID: 100, UserID: 1, CurrentWordCount: 1200, MaxWordCount: 1200,
	}, nil)
	mockLedgerRepo.On("GetByUserForUpdate", ctx, int64(2)).Return(&models.LedgerEntry{
		GuildID: 100, UserID: 2, CurrentWordCount: 100, MaxWordCount: 100, CurrentRank: &heldNovice,
	}, nil)
	mockRankRepo.On("GetAll", ctx).Return(rankTable(100), nil)
	mockLedgerRepo.On("UpdateRank", ctx, int64(1), "label:apprentice").Return(nil)

	promotions, err := service.EvaluateGuild(ctx, 100)

	require.NoError(t, err)
	require.Len(t, promotions, 1)
	assert.Equal(t, int64(1), promotions[0].UserID)
	assert.Equal(t, models.LabelRef("apprentice"), promotions[0].NewRank.Ref)

	mockLedgerRepo.AssertExpectations(t)
}

func TestEvaluationService_EvaluateGuild_EmptyLedger(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockLedgerRepo := new(MockLedgerRepository)

	mockUoW.SetRepositories(mockLedgerRepo, nil, nil, nil)

	service := NewEvaluationService(mockFactory)

	mockFactory.On("CreateForGuild", int64(100)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("GetAllByGuild", ctx).Return([]*models.LedgerEntry{}, nil)

	promotions, err := service.EvaluateGuild(ctx, 100)

	require.NoError(t, err)
	assert.Empty(t, promotions)
}
