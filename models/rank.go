package models

import (
	"time"
)

// Rank is a named tier unlocked at a word-count threshold. The threshold is
// the minimum max_word_count needed to hold the rank, so the lowest rank of a
// guild normally sits at 0. Thresholds are unique per guild; the effective
// upper bound of a rank is the next-higher threshold in the same guild.
type Rank struct {
	GuildID          int64     `db:"guild_id"`
	Ref              RankRef   `db:"-"`
	MinimumWordCount int64     `db:"minimum_word_count"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Promotion records a single rank advance produced by an evaluation run.
type Promotion struct {
	GuildID      int64
	UserID       int64
	PreviousRank *RankRef // nil when the user held no rank before
	NewRank      Rank
}

// RankStanding is the result of evaluating a single user. Current is nil when
// the user holds no rank; Dangling carries the stored reference when the held
// rank no longer exists in the guild's table.
type RankStanding struct {
	Entry    *LedgerEntry
	Current  *Rank
	Dangling *RankRef
	Promoted bool
}
