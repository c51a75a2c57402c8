package models

import (
	"time"
)

// LedgerEntry holds the running word-count state for one user in one guild.
// CurrentWordCount may drop below MaxWordCount after a negative relative
// report, but MaxWordCount itself never decreases, and CurrentRank never
// moves to a lower threshold once set.
type LedgerEntry struct {
	GuildID          int64     `db:"guild_id"`
	UserID           int64     `db:"user_id"`
	CurrentWordCount int64     `db:"current_word_count"`
	MaxWordCount     int64     `db:"max_word_count"`
	CurrentRank      *RankRef  `db:"current_rank"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
