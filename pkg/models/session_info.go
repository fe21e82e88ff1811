package models

import (
	"errors"
	"time"
)

type FetchPastSessionsReq struct {
	PatientIds []string `json:"patient_ids"`
	From       uint64   `json:"from"`
	Limit      uint64   `json:"limit"`
	OrderBy    string   `json:"order_by"`
}

type PastSessionInfo struct {
	SessionId      string `json:"session_id"`
	PatientId      string `json:"patient_id"`
	Mode           string `json:"mode"`
	EventTotal     int64  `json:"event_total"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	Started        string `json:"started"`
	Ended          string `json:"ended,omitempty"`
}

type FetchPastSessionsResult struct {
	TotalSessions int64              `json:"total_sessions"`
	From          uint64             `json:"from"`
	Limit         uint64             `json:"limit"`
	OrderBy       string             `json:"order_by"`
	SessionsList  []*PastSessionInfo `json:"sessions_list"`
}

// FetchPastSessions pages through the session history table.
func (m *SessionModel) FetchPastSessions(r *FetchPastSessionsReq) (*FetchPastSessionsResult, error) {
	if m.ds == nil {
		return nil, errors.New("database is not configured")
	}

	limit := r.Limit
	if limit == 0 {
		limit = 20
	}
	orderBy := "DESC"
	if r.OrderBy == "ASC" {
		orderBy = "ASC"
	}

	sessions, total, err := m.ds.GetPastSessions(r.PatientIds, r.From, limit, &orderBy)
	if err != nil {
		return nil, err
	}

	result := &FetchPastSessionsResult{
		TotalSessions: total,
		From:          r.From,
		Limit:         limit,
		OrderBy:       orderBy,
		SessionsList:  make([]*PastSessionInfo, 0, len(sessions)),
	}

	for i := range sessions {
		s := &sessions[i]
		info := &PastSessionInfo{
			SessionId:      s.SessionId,
			PatientId:      s.PatientId,
			Mode:           s.Mode,
			EventTotal:     s.EventTotal,
			TranscriptPath: s.TranscriptPath,
			Started:        s.Started.Format(time.RFC3339),
		}
		if s.Ended != nil {
			info.Ended = s.Ended.Format(time.RFC3339)
		}
		result.SessionsList = append(result.SessionsList, info)
	}

	return result, nil
}
