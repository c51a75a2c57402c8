package repository

import (
	"context"
	"fmt"

	"progressbot/database"
	"progressbot/models"

	"github.com/jackc/pgx/v5"
)

// GuildSettingsRepository implements the GuildSettingsRepository interface,
// scoped to a single guild.
type GuildSettingsRepository struct {
	q       Queryable
	guildID int64
}

// NewGuildSettingsRepository creates a new guild settings repository without a transaction
func NewGuildSettingsRepository(db *database.DB, guildID int64) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: db.Pool, guildID: guildID}
}

// newGuildSettingsRepository creates a new guild settings repository with a transaction and guild scope
func newGuildSettingsRepository(tx Queryable, guildID int64) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: tx, guildID: guildID}
}

// GetOrCreate retrieves the guild's settings, creating an empty row if the
// guild has none yet.
func (r *GuildSettingsRepository) GetOrCreate(ctx context.Context) (*models.GuildSettings, error) {
	query := `
		SELECT guild_id, announcement_channel_id, reminder_role_id
		FROM guild_settings
		WHERE guild_id = $1
	`

	var settings models.GuildSettings
	err := r.q.QueryRow(ctx, query, r.guildID).Scan(
		&settings.GuildID,
		&settings.AnnouncementChannelID,
		&settings.ReminderRoleID,
	)

	if err == nil {
		return &settings, nil
	}

	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get settings for guild %d: %w", r.guildID, err)
	}

	insertQuery := `
		INSERT INTO guild_settings (guild_id, announcement_channel_id, reminder_role_id)
		VALUES ($1, NULL, NULL)
		RETURNING guild_id, announcement_channel_id, reminder_role_id
	`

	err = r.q.QueryRow(ctx, insertQuery, r.guildID).Scan(
		&settings.GuildID,
		&settings.AnnouncementChannelID,
		&settings.ReminderRoleID,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create settings for guild %d: %w", r.guildID, err)
	}

	return &settings, nil
}

// Update replaces the guild's settings.
func (r *GuildSettingsRepository) Update(ctx context.Context, settings *models.GuildSettings) error {
	query := `
		UPDATE guild_settings
		SET announcement_channel_id = $2,
		    reminder_role_id = $3
		WHERE guild_id = $1
	`

	result, err := r.q.Exec(ctx, query,
		r.guildID,
		settings.AnnouncementChannelID,
		settings.ReminderRoleID,
	)

	if err != nil {
		return fmt.Errorf("failed to update settings for guild %d: %w", r.guildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("settings for guild %d not found", r.guildID)
	}

	return nil
}
