package models

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/gabriel-vasile/mimetype"
)

// GetPatientFile loads one document and classifies it by extension. The
// mapping is total; any unrecognized extension comes back as opaque bytes
// with a sniffed content type.
func (m *DocumentModel) GetPatientFile(ctx context.Context, patientId, fileName string) (*PatientDocument, error) {
	path := m.BlobPath(patientId, fileName)

	data, err := m.store.Get(ctx, path)
	switch {
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return nil, ErrDocumentNotFound
	case err != nil:
		return nil, err
	}

	doc := &PatientDocument{
		Path: path,
		Raw:  data,
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		doc.Kind = MediaKindJson
		doc.ContentType = "application/json"
	case ".md", ".txt":
		doc.Kind = MediaKindText
		doc.ContentType = "text/markdown"
	case ".png":
		doc.Kind = MediaKindImage
		doc.ContentType = "image/png"
	case ".jpg", ".jpeg":
		doc.Kind = MediaKindImage
		doc.ContentType = "image/jpeg"
	default:
		doc.Kind = MediaKindBinary
		doc.ContentType = mimetype.Detect(data).String()
	}

	return doc, nil
}
