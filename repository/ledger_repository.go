package repository

import (
	"context"
	"fmt"

	"progressbot/database"
	"progressbot/models"

	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements the LedgerRepository interface, scoped to a
// single guild.
type LedgerRepository struct {
	q       Queryable
	guildID int64
}

// NewLedgerRepository creates a new ledger repository without a transaction
func NewLedgerRepository(db *database.DB, guildID int64) *LedgerRepository {
	return &LedgerRepository{q: db.Pool, guildID: guildID}
}

// newLedgerRepository creates a new ledger repository with a transaction and guild scope
func newLedgerRepository(tx Queryable, guildID int64) *LedgerRepository {
	return &LedgerRepository{q: tx, guildID: guildID}
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var rankKey *string

	err := row.Scan(
		&entry.GuildID,
		&entry.UserID,
		&entry.CurrentWordCount,
		&entry.MaxWordCount,
		&rankKey,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rankKey != nil {
		ref, err := models.ParseRankKey(*rankKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored rank key: %w", err)
		}
		entry.CurrentRank = &ref
	}

	return &entry, nil
}

// GetByUser retrieves a user's ledger entry, or nil if the user has never
// submitted a report in this guild.
func (r *LedgerRepository) GetByUser(ctx context.Context, userID int64) (*models.LedgerEntry, error) {
	query := `
		SELECT guild_id, user_id, current_word_count, max_word_count, current_rank, created_at, updated_at
		FROM ledger
		WHERE guild_id = $1 AND user_id = $2
	`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, r.guildID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry for user %d: %w", userID, err)
	}

	return entry, nil
}

// GetByUserForUpdate retrieves a user's ledger entry and locks the row for
// the duration of the surrounding transaction. Concurrent submissions and
// evaluations for the same (guild, user) serialize on this lock.
func (r *LedgerRepository) GetByUserForUpdate(ctx context.Context, userID int64) (*models.LedgerEntry, error) {
	query := `
		SELECT guild_id, user_id, current_word_count, max_word_count, current_rank, created_at, updated_at
		FROM ledger
		WHERE guild_id = $1 AND user_id = $2
		FOR UPDATE
	`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, r.guildID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger entry for user %d: %w", userID, err)
	}

	return entry, nil
}

// GetAllByGuild returns every ledger entry in the guild ordered by user ID.
func (r *LedgerRepository) GetAllByGuild(ctx context.Context) ([]*models.LedgerEntry, error) {
	query := `
		SELECT guild_id, user_id, current_word_count, max_word_count, current_rank, created_at, updated_at
		FROM ledger
		WHERE guild_id = $1
		ORDER BY user_id
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// UpsertTotal sets a user's current word count to newTotal, creating the
// ledger entry if it does not exist. max_word_count only ever grows;
// current_rank is left untouched.
func (r *LedgerRepository) UpsertTotal(ctx context.Context, userID int64, newTotal int64) (*models.LedgerEntry, error) {
	query := `
		INSERT INTO ledger (guild_id, user_id, current_word_count, max_word_count)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (guild_id, user_id) DO UPDATE
		SET current_word_count = $3,
		    max_word_count = GREATEST(ledger.max_word_count, $3),
		    updated_at = NOW()
		RETURNING guild_id, user_id, current_word_count, max_word_count, current_rank, created_at, updated_at
	`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, r.guildID, userID, newTotal))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert ledger entry for user %d: %w", userID, err)
	}

	return entry, nil
}

// UpdateRank sets a user's current rank to the given normalized key.
func (r *LedgerRepository) UpdateRank(ctx context.Context, userID int64, rankKey string) error {
	query := `
		UPDATE ledger
		SET current_rank = $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`

	result, err := r.q.Exec(ctx, query, r.guildID, userID, rankKey)
	if err != nil {
		return fmt.Errorf("failed to update rank for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry for user %d not found", userID)
	}

	return nil
}
