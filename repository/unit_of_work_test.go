package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"progressbot/events"
	"progressbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersistsAndFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	eventBus := events.NewBus()

	var mu sync.Mutex
	var received []events.Event
	done := make(chan struct{}, 1)
	eventBus.Subscribe(events.EventTypeReportSubmitted, func(ctx context.Context, event events.Event) {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		done <- struct{}{}
	})

	factory := NewUnitOfWorkFactory(testDB.DB, eventBus)
	uow := factory.CreateForGuild(100)

	require.NoError(t, uow.Begin(ctx))

	_, err := uow.LedgerRepository().UpsertTotal(ctx, 1, 500)
	require.NoError(t, err)

	uow.EventBus().Publish(events.ReportSubmittedEvent{
		GuildID:        100,
		UserID:         1,
		ReportID:       1,
		TotalWordCount: 500,
	})

	// Nothing reaches subscribers before the commit.
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()

	require.NoError(t, uow.Commit())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	mu.Lock()
	require.Len(t, received, 1)
	event := received[0].(events.ReportSubmittedEvent)
	mu.Unlock()
	assert.Equal(t, int64(500), event.TotalWordCount)

	entry, err := NewLedgerRepository(testDB.DB, 100).GetByUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(500), entry.CurrentWordCount)
}

func TestUnitOfWork_RollbackDiscardsChangesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	eventBus := events.NewBus()

	var mu sync.Mutex
	var received []events.Event
	eventBus.Subscribe(events.EventTypeReportSubmitted, func(ctx context.Context, event events.Event) {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
	})

	factory := NewUnitOfWorkFactory(testDB.DB, eventBus)
	uow := factory.CreateForGuild(100)

	require.NoError(t, uow.Begin(ctx))

	_, err := uow.LedgerRepository().UpsertTotal(ctx, 1, 500)
	require.NoError(t, err)

	uow.EventBus().Publish(events.ReportSubmittedEvent{
		GuildID: 100,
		UserID:  1,
	})

	require.NoError(t, uow.Rollback())

	entry, err := NewLedgerRepository(testDB.DB, 100).GetByUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, entry)

	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()
}

func TestUnitOfWork_BeginTwiceFails(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	uow := factory.CreateForGuild(100)

	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	assert.Error(t, uow.Begin(ctx))
}

func TestUnitOfWork_RepositoriesRequireBegin(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	uow := factory.CreateForGuild(100)

	assert.Panics(t, func() {
		uow.LedgerRepository()
	})
}
