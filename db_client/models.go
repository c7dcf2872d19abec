package db_client

import "time"

// Guild remembers where the bot was last talked to in a guild
type Guild struct {
	ID                 uint64 `gorm:"primaryKey;autoIncrement:false"`
	LastTextChannelID  uint64
	LastVoiceChannelID uint64
	UpdatedAt          time.Time
}

// PlayRecord is one media item that started playing
type PlayRecord struct {
	ID            uint   `gorm:"primaryKey"`
	GuildID       uint64 `gorm:"index:idx_guild_played"`
	MediaID       string
	URL           string
	Title         string
	LengthSeconds int64
	QueuedByID    uint64
	QueuedByName  string
	PlayedAt      time.Time `gorm:"index:idx_guild_played,sort:desc"`
}
