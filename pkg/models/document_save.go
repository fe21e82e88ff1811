package models

import (
	"context"
	"fmt"
)

// SavePatientFile creates or overwrites one document and returns the blob
// path it was written to. There is no distinct update operation; last write
// wins.
func (m *DocumentModel) SavePatientFile(ctx context.Context, patientId, fileName string, content []byte) (string, error) {
	path := m.BlobPath(patientId, fileName)

	err := m.store.Put(ctx, path, content)
	if err != nil {
		return "", err
	}

	m.logger.Infoln("saved file:", path)
	return path, nil
}

// SaveSessionFile stores a session artifact, such as a finished transcript,
// under the session data prefix instead of the patient's profile folder.
func (m *DocumentModel) SaveSessionFile(ctx context.Context, patientId, fileName string, content []byte) (string, error) {
	path := fmt.Sprintf("%s/%s/%s", m.app.BlobStore.SessionDataPrefix, patientId, fileName)

	err := m.store.Put(ctx, path, content)
	if err != nil {
		return "", err
	}

	m.logger.Infoln("saved session file:", path)
	return path, nil
}
