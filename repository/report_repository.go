package repository

import (
	"context"
	"fmt"
	"strconv"

	"progressbot/database"
	"progressbot/models"
	"progressbot/service"

	"github.com/jackc/pgx/v5"
)

// ReportRepository implements the ReportRepository interface, scoped to a
// single guild.
type ReportRepository struct {
	q       Queryable
	guildID int64
}

// NewReportRepository creates a new report repository without a transaction
func NewReportRepository(db *database.DB, guildID int64) *ReportRepository {
	return &ReportRepository{q: db.Pool, guildID: guildID}
}

// newReportRepository creates a new report repository with a transaction and guild scope
func newReportRepository(tx Queryable, guildID int64) *ReportRepository {
	return &ReportRepository{q: tx, guildID: guildID}
}

// NextReportID bumps the guild's report sequence and returns the new value.
// The bump happens inside the caller's transaction, so a rolled back
// submission never consumes an id. Once the sequence would pass
// models.MaxReportID the guild is exhausted and every further call fails.
func (r *ReportRepository) NextReportID(ctx context.Context) (int32, error) {
	query := `
		INSERT INTO guild_counters (guild_id, last_report_id)
		VALUES ($1, 1)
		ON CONFLICT (guild_id) DO UPDATE
		SET last_report_id = guild_counters.last_report_id + 1
		WHERE guild_counters.last_report_id < $2
		RETURNING last_report_id
	`

	var reportID int32
	err := r.q.QueryRow(ctx, query, r.guildID, models.MaxReportID).Scan(&reportID)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("guild %d: %w", r.guildID, service.ErrSequenceExhausted)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to advance report sequence for guild %d: %w", r.guildID, err)
	}

	return reportID, nil
}

// Create appends a report record. Reports are immutable once created.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (guild_id, report_id, user_id, total_word_count, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		report.ReportID,
		report.UserID,
		report.TotalWordCount,
		report.Note,
	).Scan(&report.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create report %d for user %d: %w", report.ReportID, report.UserID, err)
	}

	report.GuildID = r.guildID
	return nil
}

// List returns reports matching the filter in reverse-chronological order.
func (r *ReportRepository) List(ctx context.Context, filter service.ReportFilter) ([]*models.Report, error) {
	query := `
		SELECT guild_id, report_id, user_id, total_word_count, note, created_at
		FROM reports
		WHERE guild_id = $1
	`
	args := []any{r.guildID}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += " AND user_id = $" + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += " AND created_at >= $" + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += " AND created_at < $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY created_at DESC, report_id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var report models.Report
		err := rows.Scan(
			&report.GuildID,
			&report.ReportID,
			&report.UserID,
			&report.TotalWordCount,
			&report.Note,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}
