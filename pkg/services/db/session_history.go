package dbservice

import (
	"errors"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/dbmodels"
	"gorm.io/gorm"
)

func (s *DatabaseService) InsertSessionHistory(info *dbmodels.SessionHistory) (int64, error) {
	result := s.db.Create(info)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// CloseSessionHistory stamps the end of a session and records its final
// totals.
func (s *DatabaseService) CloseSessionHistory(sessionId string, eventTotal int64, transcriptPath string) (int64, error) {
	update := map[string]interface{}{
		"ended":       time.Now(),
		"event_total": eventTotal,
	}
	if transcriptPath != "" {
		update["transcript_path"] = transcriptPath
	}

	cond := &dbmodels.SessionHistory{
		SessionId: sessionId,
	}

	result := s.db.Model(&dbmodels.SessionHistory{}).Where(cond).Updates(update)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *DatabaseService) GetSessionHistory(sessionId string) (*dbmodels.SessionHistory, error) {
	info := new(dbmodels.SessionHistory)
	cond := &dbmodels.SessionHistory{
		SessionId: sessionId,
	}

	result := s.db.Where(cond).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) GetPastSessions(patientIds []string, offset, limit uint64, direction *string) ([]dbmodels.SessionHistory, int64, error) {
	var sessions []dbmodels.SessionHistory
	var total int64

	d := s.db.Model(&dbmodels.SessionHistory{})
	if len(patientIds) > 0 {
		d.Where("patient_id IN ?", patientIds)
	}

	if err := d.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit == 0 {
		limit = 20
	}

	orderBy := "DESC"
	if direction != nil && *direction == "ASC" {
		orderBy = "ASC"
	}

	result := d.Offset(int(offset)).Limit(int(limit)).Order("id " + orderBy).Find(&sessions)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, 0, result.Error
	}

	return sessions, total, nil
}
