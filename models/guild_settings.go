package models

// GuildSettings holds per-guild bot configuration.
type GuildSettings struct {
	GuildID               int64  `db:"guild_id"`
	AnnouncementChannelID *int64 `db:"announcement_channel_id"`
	ReminderRoleID        *int64 `db:"reminder_role_id"`
}
