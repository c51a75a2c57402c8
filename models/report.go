package models

import (
	"time"
)

// MaxReportID is the highest report sequence value a guild may reach. The
// sequence is exhausted once it would pass this; further submissions for that
// guild fail rather than wrapping.
const MaxReportID = int32(2147483647)

// Report is one submitted word-count data point. It always stores the
// resolved absolute total, never the raw relative delta, and is immutable
// once created. ReportID is unique and monotonic within a guild.
type Report struct {
	GuildID        int64     `db:"guild_id"`
	ReportID       int32     `db:"report_id"`
	UserID         int64     `db:"user_id"`
	TotalWordCount int64     `db:"total_word_count"`
	Note           *string   `db:"note"`
	CreatedAt      time.Time `db:"created_at"`
}
