package models

import (
	"context"
	"errors"

	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
)

// DeletePatientFile removes one document. Deleting an absent document is an
// error so that callers can answer with a proper not found status.
func (m *DocumentModel) DeletePatientFile(ctx context.Context, patientId, fileName string) error {
	path := m.BlobPath(patientId, fileName)

	err := m.store.Delete(ctx, path)
	switch {
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return ErrDocumentNotFound
	case err != nil:
		return err
	}

	m.logger.Infoln("deleted file:", path)
	return nil
}
