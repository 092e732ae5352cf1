package models

import "time"

// Vote is an immutable ledger event: user voted for coin at CreatedAt (UTC).
// VoteDay holds the reference-timezone calendar date (YYYY-MM-DD) of the cast,
// materialized at insert so the one-vote-per-coin-per-day rule can be enforced
// by the unique index rather than a check-then-act read.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_votes_user_coin_day" json:"user_id"`
	CoinID    string    `gorm:"size:128;not null;index;uniqueIndex:idx_votes_user_coin_day" json:"coin_id"`
	CoinName  string    `gorm:"size:255;not null" json:"coin_name"`
	VoteDay   string    `gorm:"size:10;not null;uniqueIndex:idx_votes_user_coin_day" json:"vote_day"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
