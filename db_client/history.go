package db_client

import (
	"context"
	"time"

	"Volfbot/media"

	"github.com/disgoorg/snowflake/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// History stores what each guild played and where it was last used
type History struct {
	db  *gorm.DB
	now func() time.Time
}

func NewHistory(db *gorm.DB) *History {
	return &History{db: db, now: time.Now}
}

func newPlayRecord(guildID snowflake.ID, m *media.Media, playedAt time.Time) PlayRecord {
	md := m.Metadata()
	return PlayRecord{
		GuildID:       uint64(guildID),
		MediaID:       m.ID().String(),
		URL:           m.URL(),
		Title:         md.Title(),
		LengthSeconds: int64(md.Length().Seconds()),
		QueuedByID:    uint64(md.QueuedBy().ID),
		QueuedByName:  md.QueuedBy().Name,
		PlayedAt:      playedAt,
	}
}

// RecordPlay notes that m started playing in the guild
func (h *History) RecordPlay(ctx context.Context, guildID snowflake.ID, m *media.Media) error {
	record := newPlayRecord(guildID, m, h.now())
	return h.db.WithContext(ctx).Create(&record).Error
}

// RememberChannels stores the guild's last used channels. Zero IDs leave the stored value alone.
func (h *History) RememberChannels(ctx context.Context, guildID, textChannelID, voiceChannelID snowflake.ID) error {
	guild := Guild{
		ID:                 uint64(guildID),
		LastTextChannelID:  uint64(textChannelID),
		LastVoiceChannelID: uint64(voiceChannelID),
		UpdatedAt:          h.now(),
	}

	columns := []string{"updated_at"}
	if textChannelID != 0 {
		columns = append(columns, "last_text_channel_id")
	}
	if voiceChannelID != 0 {
		columns = append(columns, "last_voice_channel_id")
	}

	return h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&guild).Error
}

// Channels returns the guild's remembered channels, if any
func (h *History) Channels(ctx context.Context, guildID snowflake.ID) (*Guild, error) {
	var guild Guild
	err := h.db.WithContext(ctx).Where("id = ?", uint64(guildID)).Limit(1).Find(&guild).Error
	if err != nil {
		return nil, err
	}
	if guild.ID == 0 {
		return nil, nil
	}
	return &guild, nil
}

// RecentPlays lists the guild's latest plays, newest first
func (h *History) RecentPlays(ctx context.Context, guildID snowflake.ID, limit int) ([]PlayRecord, error) {
	var records []PlayRecord
	err := h.db.WithContext(ctx).
		Where("guild_id = ?", uint64(guildID)).
		Order("played_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}
