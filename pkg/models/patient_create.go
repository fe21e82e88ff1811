package models

import (
	"context"

	"github.com/clinicsim/clinicsim-server/pkg/config"
)

// CreatePatient writes the seed document that makes the patient's folder
// visible. Existence is judged over the whole prefix, so a patient that
// already holds any file, seed or not, cannot be created again.
func (m *PatientModel) CreatePatient(ctx context.Context, patientId string) error {
	prefix := m.patientPrefix(patientId)

	existing, err := m.store.List(ctx, prefix)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ErrPatientExists
	}

	seedPath := prefix + config.PatientSeedFileName
	err = m.store.Put(ctx, seedPath, []byte(config.PatientSeedFileContent))
	if err != nil {
		return err
	}

	m.logger.Infoln("created patient folder:", prefix)
	return nil
}
