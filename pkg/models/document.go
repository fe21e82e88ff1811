package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/sirupsen/logrus"
)

// sentinel errors for controllers to map onto HTTP statuses
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPatientExists    = errors.New("patient already exists")
	ErrPatientNotFound  = errors.New("patient not found")
)

const (
	MediaKindJson   = "json"
	MediaKindText   = "text"
	MediaKindImage  = "image"
	MediaKindBinary = "binary"
)

// PatientDocument is one fetched patient file together with the media kind
// derived from its file name extension.
type PatientDocument struct {
	Path        string
	Kind        string
	ContentType string
	Raw         []byte
}

// PatientFileEntry describes one stored file for listing purposes.
type PatientFileEntry struct {
	Name     string     `json:"name"`
	FullPath string     `json:"full_path"`
	Size     int64      `json:"size"`
	Updated  *time.Time `json:"updated"`
}

type DocumentModel struct {
	app    *config.AppConfig
	store  blobstore.BlobStore
	logger *logrus.Entry
}

func NewDocumentModel(app *config.AppConfig, store blobstore.BlobStore, logger *logrus.Logger) *DocumentModel {
	if app == nil {
		app = config.GetConfig()
	}

	return &DocumentModel{
		app:    app,
		store:  store,
		logger: logger.WithField("model", "document"),
	}
}

// BlobPath returns the canonical blob key of one patient file.
func (m *DocumentModel) BlobPath(patientId, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", m.app.BlobStore.PatientRootPrefix, patientId, fileName)
}

func (m *DocumentModel) patientPrefix(patientId string) string {
	return fmt.Sprintf("%s/%s/", m.app.BlobStore.PatientRootPrefix, patientId)
}
