package dbmodels

import (
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
)

type SessionHistory struct {
	ID             uint64     `gorm:"primarykey"`
	SessionId      string     `gorm:"column:session_id;not null;uniqueIndex"`
	PatientId      string     `gorm:"column:patient_id;not null;index"`
	Mode           string     `gorm:"column:mode;not null"`
	EventTotal     int64      `gorm:"column:event_total;default:0;not null"`
	TranscriptPath string     `gorm:"column:transcript_path"`
	Started        time.Time  `gorm:"column:started;not null;autoCreateTime"`
	Ended          *time.Time `gorm:"column:ended"`
}

func (t *SessionHistory) TableName() string {
	return config.FormatDBTable("session_history")
}
