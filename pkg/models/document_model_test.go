package models

import (
	"context"
	"testing"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentTestModel(t *testing.T) (*DocumentModel, blobstore.BlobStore) {
	t.Helper()

	app := &config.AppConfig{}
	app.BlobStore.PatientRootPrefix = config.DefaultPatientRootPrefix

	store := blobstore.NewMemoryBlobStore()
	return NewDocumentModel(app, store, logrus.New()), store
}

func TestDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newDocumentTestModel(t)

	cases := []struct {
		fileName    string
		content     []byte
		kind        string
		contentType string
	}{
		{"labs.json", []byte(`{"hb": 12, "wbc": 6.1}`), MediaKindJson, "application/json"},
		{"patient_info.md", []byte("# Patient Profile\nName: \nAge: "), MediaKindText, "text/markdown"},
		{"notes.txt", []byte("stable overnight"), MediaKindText, "text/markdown"},
		{"xray.png", []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}, MediaKindImage, "image/png"},
		{"photo.JPG", []byte{0xff, 0xd8, 0xff, 0xe0}, MediaKindImage, "image/jpeg"},
	}

	for _, c := range cases {
		t.Run(c.fileName, func(t *testing.T) {
			path, err := m.SavePatientFile(ctx, "P0001", c.fileName, c.content)
			require.NoError(t, err)
			assert.Equal(t, "patient_profile/P0001/"+c.fileName, path)

			doc, err := m.GetPatientFile(ctx, "P0001", c.fileName)
			require.NoError(t, err)
			assert.Equal(t, c.kind, doc.Kind)
			assert.Equal(t, c.contentType, doc.ContentType)
			assert.Equal(t, c.content, doc.Raw)
			assert.Equal(t, path, doc.Path)
		})
	}
}

func TestDocumentUnknownExtensionIsOpaque(t *testing.T) {
	ctx := context.Background()
	m, _ := newDocumentTestModel(t)

	content := []byte{0x00, 0x01, 0x02, 0x03}
	_, err := m.SavePatientFile(ctx, "P0001", "raw.dat", content)
	require.NoError(t, err)

	doc, err := m.GetPatientFile(ctx, "P0001", "raw.dat")
	require.NoError(t, err)
	assert.Equal(t, MediaKindBinary, doc.Kind)
	assert.Equal(t, "application/octet-stream", doc.ContentType)
	assert.Equal(t, content, doc.Raw)
}

func TestDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	m, _ := newDocumentTestModel(t)

	_, err := m.GetPatientFile(ctx, "P0001", "missing.md")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	err = m.DeletePatientFile(ctx, "P0001", "missing.md")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentDelete(t *testing.T) {
	ctx := context.Background()
	m, _ := newDocumentTestModel(t)

	_, err := m.SavePatientFile(ctx, "P0001", "notes.txt", []byte("gone soon"))
	require.NoError(t, err)

	require.NoError(t, m.DeletePatientFile(ctx, "P0001", "notes.txt"))

	_, err = m.GetPatientFile(ctx, "P0001", "notes.txt")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestListPatientFiles(t *testing.T) {
	ctx := context.Background()
	m, store := newDocumentTestModel(t)

	_, err := m.SavePatientFile(ctx, "P0001", "patient_info.md", []byte("info"))
	require.NoError(t, err)
	_, err = m.SavePatientFile(ctx, "P0001", "labs.json", []byte(`{}`))
	require.NoError(t, err)
	_, err = m.SavePatientFile(ctx, "P0002", "patient_info.md", []byte("other patient"))
	require.NoError(t, err)

	// directory placeholders carry no file name and must be skipped
	require.NoError(t, store.Put(ctx, "patient_profile/P0001/", nil))

	files, err := m.ListPatientFiles(ctx, "P0001")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "labs.json", files[0].Name)
	assert.Equal(t, "patient_profile/P0001/labs.json", files[0].FullPath)
	assert.Equal(t, int64(2), files[0].Size)
	require.NotNil(t, files[0].Updated)
	assert.Equal(t, "patient_info.md", files[1].Name)

	files, err = m.ListPatientFiles(ctx, "P0404")
	require.NoError(t, err)
	assert.Empty(t, files)
}
