package models

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/gammazero/workerpool"
)

const deletePatientWorkers = 5

// DeletePatient removes every blob under the patient's prefix and returns
// how many were deleted. The bulk delete is not atomic; individual failures
// are logged and the rest of the folder is still attempted.
func (m *PatientModel) DeletePatient(ctx context.Context, patientId string) (int, error) {
	prefix := m.patientPrefix(patientId)

	blobs, err := m.store.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(blobs) == 0 {
		return 0, ErrPatientNotFound
	}

	wp := workerpool.New(deletePatientWorkers)
	var deleted int64
	for _, b := range blobs {
		key := b.Key
		wp.Submit(func() {
			err := m.store.Delete(ctx, key)
			if err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
				m.logger.WithError(err).Errorln("failed to delete blob:", key)
				return
			}
			atomic.AddInt64(&deleted, 1)
		})
	}
	wp.StopWait()

	m.logger.Infoln("deleted patient folder:", prefix)
	return int(deleted), nil
}
