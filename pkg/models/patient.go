package models

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/sirupsen/logrus"
)

// PatientModel manages the emergent patient folders. A patient exists iff at
// least one blob lives under its prefix; there is no stored patient record.
type PatientModel struct {
	app    *config.AppConfig
	store  blobstore.BlobStore
	logger *logrus.Entry
}

func NewPatientModel(app *config.AppConfig, store blobstore.BlobStore, logger *logrus.Logger) *PatientModel {
	if app == nil {
		app = config.GetConfig()
	}

	return &PatientModel{
		app:    app,
		store:  store,
		logger: logger.WithField("model", "patient"),
	}
}

func (m *PatientModel) patientPrefix(patientId string) string {
	return fmt.Sprintf("%s/%s/", m.app.BlobStore.PatientRootPrefix, patientId)
}

// ListPatients returns the distinct first-level folder names under the
// patient root, sorted.
func (m *PatientModel) ListPatients(ctx context.Context) ([]string, error) {
	prefix := m.app.BlobStore.PatientRootPrefix + "/"

	blobs, err := m.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	patients := make([]string, 0)
	for _, b := range blobs {
		rest := strings.TrimPrefix(b.Key, prefix)
		pid, _, found := strings.Cut(rest, "/")
		if !found || pid == "" || seen[pid] {
			continue
		}
		seen[pid] = true
		patients = append(patients, pid)
	}

	sort.Strings(patients)
	return patients, nil
}
