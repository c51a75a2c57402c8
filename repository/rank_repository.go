package repository

import (
	"context"
	"fmt"

	"progressbot/database"
	"progressbot/models"
	"progressbot/service"

	"github.com/jackc/pgx/v5"
)

// RankRepository implements the RankRepository interface, scoped to a
// single guild.
type RankRepository struct {
	q       Queryable
	guildID int64
}

// NewRankRepository creates a new rank repository without a transaction
func NewRankRepository(db *database.DB, guildID int64) *RankRepository {
	return &RankRepository{q: db.Pool, guildID: guildID}
}

// newRankRepository creates a new rank repository with a transaction and guild scope
func newRankRepository(tx Queryable, guildID int64) *RankRepository {
	return &RankRepository{q: tx, guildID: guildID}
}

func rankRefColumns(ref models.RankRef) (roleID *int64, label *string) {
	if ref.IsRole() {
		return &ref.RoleID, nil
	}
	return nil, &ref.Label
}

func scanRank(row pgx.Row) (*models.Rank, error) {
	var rank models.Rank
	var identifier string
	var roleID *int64
	var label *string

	err := row.Scan(
		&rank.GuildID,
		&identifier,
		&roleID,
		&label,
		&rank.MinimumWordCount,
		&rank.CreatedAt,
		&rank.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case roleID != nil:
		rank.Ref = models.RoleRef(*roleID)
	case label != nil:
		rank.Ref = models.LabelRef(*label)
	default:
		return nil, fmt.Errorf("rank %q has neither role nor label", identifier)
	}

	return &rank, nil
}

// Upsert creates the rank or, if the identifier already exists in the guild,
// replaces its threshold.
func (r *RankRepository) Upsert(ctx context.Context, rank *models.Rank) error {
	roleID, label := rankRefColumns(rank.Ref)

	query := `
		INSERT INTO ranks (guild_id, identifier, role_id, label, minimum_word_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, identifier) DO UPDATE
		SET minimum_word_count = $5, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		rank.Ref.Key(),
		roleID,
		label,
		rank.MinimumWordCount,
	).Scan(&rank.CreatedAt, &rank.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert rank %s: %w", rank.Ref.Key(), err)
	}

	rank.GuildID = r.guildID
	return nil
}

// Get retrieves a rank by its reference, or nil if it does not exist.
func (r *RankRepository) Get(ctx context.Context, ref models.RankRef) (*models.Rank, error) {
	query := `
		SELECT guild_id, identifier, role_id, label, minimum_word_count, created_at, updated_at
		FROM ranks
		WHERE guild_id = $1 AND identifier = $2
	`

	rank, err := scanRank(r.q.QueryRow(ctx, query, r.guildID, ref.Key()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rank %s: %w", ref.Key(), err)
	}

	return rank, nil
}

// GetAll returns the guild's rank table sorted ascending by threshold.
func (r *RankRepository) GetAll(ctx context.Context) ([]*models.Rank, error) {
	query := `
		SELECT guild_id, identifier, role_id, label, minimum_word_count, created_at, updated_at
		FROM ranks
		WHERE guild_id = $1
		ORDER BY minimum_word_count ASC
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ranks for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var ranks []*models.Rank
	for rows.Next() {
		rank, err := scanRank(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rank: %w", err)
		}
		ranks = append(ranks, rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ranks: %w", err)
	}

	return ranks, nil
}

// Delete removes a rank definition. Ledger entries that still reference it
// are deliberately left alone; they dangle until the next promotion.
func (r *RankRepository) Delete(ctx context.Context, ref models.RankRef) error {
	query := `
		DELETE FROM ranks
		WHERE guild_id = $1 AND identifier = $2
	`

	result, err := r.q.Exec(ctx, query, r.guildID, ref.Key())
	if err != nil {
		return fmt.Errorf("failed to delete rank %s: %w", ref.Key(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("rank %s in guild %d: %w", ref.Key(), r.guildID, service.ErrRankNotFound)
	}

	return nil
}

// Clear removes every rank definition in the guild. Ledgers are untouched.
func (r *RankRepository) Clear(ctx context.Context) error {
	query := `
		DELETE FROM ranks
		WHERE guild_id = $1
	`

	if _, err := r.q.Exec(ctx, query, r.guildID); err != nil {
		return fmt.Errorf("failed to clear ranks for guild %d: %w", r.guildID, err)
	}

	return nil
}
