package models

import (
	"context"
	"strings"
)

// ListPatientFiles returns every document under the patient's prefix. Keys
// that end at the prefix itself (directory placeholders) are skipped.
func (m *DocumentModel) ListPatientFiles(ctx context.Context, patientId string) ([]*PatientFileEntry, error) {
	prefix := m.patientPrefix(patientId)

	blobs, err := m.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	files := make([]*PatientFileEntry, 0, len(blobs))
	for _, b := range blobs {
		name := strings.TrimPrefix(b.Key, prefix)
		if name == "" {
			continue
		}
		files = append(files, &PatientFileEntry{
			Name:     name,
			FullPath: b.Key,
			Size:     b.Size,
			Updated:  b.Updated,
		})
	}

	return files, nil
}
