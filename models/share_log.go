package models

import "time"

// ShareLog records a share-point award, one per user per coin per
// reference-timezone day. Rows cascade away with their user.
type ShareLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_share_logs_user_coin_day" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CoinID    string    `gorm:"size:128;not null;uniqueIndex:idx_share_logs_user_coin_day" json:"coin_id"`
	ShareDay  string    `gorm:"size:10;not null;uniqueIndex:idx_share_logs_user_coin_day" json:"share_day"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
