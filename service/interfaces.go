package service

import (
	"context"
	"time"

	"progressbot/events"
	"progressbot/models"
)

// ReportFilter narrows a report listing. Nil fields are ignored; To is
// exclusive. A Limit of zero means no limit.
type ReportFilter struct {
	UserID *int64
	From   *time.Time
	To     *time.Time
	Limit  int
}

// LedgerRepository defines the interface for per-user running total data access
type LedgerRepository interface {
	// GetByUser retrieves a user's ledger entry, or nil if absent
	GetByUser(ctx context.Context, userID int64) (*models.LedgerEntry, error)

	// GetByUserForUpdate retrieves a user's ledger entry and locks the row
	// for the surrounding transaction, or nil if absent
	GetByUserForUpdate(ctx context.Context, userID int64) (*models.LedgerEntry, error)

	// GetAllByGuild returns every ledger entry in the guild ordered by user ID
	GetAllByGuild(ctx context.Context) ([]*models.LedgerEntry, error)

	// UpsertTotal sets a user's current word count, creating the entry if
	// needed; max_word_count only ever grows and current_rank is untouched
	UpsertTotal(ctx context.Context, userID int64, newTotal int64) (*models.LedgerEntry, error)

	// UpdateRank sets a user's current rank to the given normalized key
	UpdateRank(ctx context.Context, userID int64, rankKey string) error
}

// ReportRepository defines the interface for the append-only report history
type ReportRepository interface {
	// NextReportID advances the guild's report sequence; fails with
	// ErrSequenceExhausted once the sequence would pass its maximum
	NextReportID(ctx context.Context) (int32, error)

	// Create appends a report record
	Create(ctx context.Context, report *models.Report) error

	// List returns reports matching the filter in reverse-chronological order
	List(ctx context.Context, filter ReportFilter) ([]*models.Report, error)
}

// RankRepository defines the interface for rank definition data access
type RankRepository interface {
	// Upsert creates a rank or replaces the threshold of an existing identifier
	Upsert(ctx context.Context, rank *models.Rank) error

	// Get retrieves a rank by reference, or nil if absent
	Get(ctx context.Context, ref models.RankRef) (*models.Rank, error)

	// GetAll returns the guild's ranks sorted ascending by threshold
	GetAll(ctx context.Context) ([]*models.Rank, error)

	// Delete removes a rank definition; fails with ErrRankNotFound if absent
	Delete(ctx context.Context, ref models.RankRef) error

	// Clear removes every rank definition in the guild
	Clear(ctx context.Context) error
}

// GuildSettingsRepository defines the interface for guild settings data access
type GuildSettingsRepository interface {
	// GetOrCreate retrieves the guild's settings, creating defaults if absent
	GetOrCreate(ctx context.Context) (*models.GuildSettings, error)

	// Update replaces the guild's settings
	Update(ctx context.Context, settings *models.GuildSettings) error
}

// ReportService defines the interface for report ingestion and listing
type ReportService interface {
	// Submit parses a word-count expression, resolves it against the user's
	// running total, updates the ledger and appends the report atomically
	Submit(ctx context.Context, guildID, userID int64, expression string, note *string) (*models.Report, error)

	// List returns reports matching the filter in reverse-chronological order
	List(ctx context.Context, guildID int64, filter ReportFilter) ([]*models.Report, error)

	// GetLedgerEntry returns a user's running totals, or nil if the user has
	// never submitted a report in the guild
	GetLedgerEntry(ctx context.Context, guildID, userID int64) (*models.LedgerEntry, error)
}

// RankService defines the interface for rank table management
type RankService interface {
	// DefineRank upserts a rank by identifier; fails with ErrInvalidThreshold
	// for negative or duplicate thresholds
	DefineRank(ctx context.Context, guildID int64, ref models.RankRef, threshold int64) (*models.Rank, error)

	// RemoveRank deletes a rank definition; holders keep a dangling reference
	RemoveRank(ctx context.Context, guildID int64, ref models.RankRef) error

	// ClearRanks deletes every rank definition in the guild
	ClearRanks(ctx context.Context, guildID int64) error

	// ListRanks returns the guild's ranks sorted ascending by threshold
	ListRanks(ctx context.Context, guildID int64) ([]*models.Rank, error)
}

// EvaluationService defines the interface for rank evaluation
type EvaluationService interface {
	// EvaluateUser determines one user's correct rank from max_word_count and
	// applies a promotion if one is due; never demotes
	EvaluateUser(ctx context.Context, guildID, userID int64) (*models.RankStanding, error)

	// EvaluateGuild evaluates every user in the guild and returns the
	// promotions applied, in user-ID order. Running it again with no new
	// reports yields an empty list.
	EvaluateGuild(ctx context.Context, guildID int64) ([]*models.Promotion, error)
}

// GuildSettingsService defines the interface for guild settings operations
type GuildSettingsService interface {
	// GetOrCreateSettings retrieves guild settings or creates default ones if not found
	GetOrCreateSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error)

	// UpdateAnnouncementChannel updates the promotion announcement channel for a guild
	UpdateAnnouncementChannel(ctx context.Context, guildID int64, channelID *int64) error

	// UpdateReminderRole updates the reminder role for a guild
	UpdateReminderRole(ctx context.Context, guildID int64, roleID *int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	LedgerRepository() LedgerRepository
	ReportRepository() ReportRepository
	RankRepository() RankRepository
	GuildSettingsRepository() GuildSettingsRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}
