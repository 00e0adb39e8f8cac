package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVHonoursFilter(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newRecordedService(db)
	ctx := context.Background()
	cat := createCategory(t, db, "Residuos Electrónicos")

	kept, err := svc.Create(ctx, CreateReportInput{CategoryID: &cat.ID, Direccion: "Av. Matta 100", Location: models.Location{Lat: -33.45, Lng: -70.64}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateReportInput{Location: models.Location{Lat: -33.46, Lng: -70.65}})
	require.NoError(t, err)

	export := NewExportService(db, svc, "/media/")
	reports, err := export.Load(ctx, ReportFilter{CategoryID: &cat.ID})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, reports))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, kept.TrackingCode, records[1][0])
	assert.Equal(t, "Residuos Electrónicos", records[1][2])
	assert.Equal(t, "-33.45", records[1][6])
}

func TestExportPDF(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newRecordedService(db)
	ctx := context.Background()
	export := NewExportService(db, svc, "/media/")

	var empty bytes.Buffer
	require.NoError(t, export.WritePDF(ctx, &empty, nil))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), []byte("%PDF")))

	_, err := svc.Create(ctx, CreateReportInput{Direccion: "Calle Ñuble 123", Location: models.Location{Lat: 1, Lng: 1}})
	require.NoError(t, err)
	reports, err := export.Load(ctx, ReportFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WritePDF(ctx, &buf, reports))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), empty.Len())
}

func TestParseReportFilter(t *testing.T) {
	f := ParseReportFilter(" nuevo ", "abc", "ab1")
	assert.Equal(t, "nuevo", f.Estado)
	assert.Nil(t, f.CategoryID)
	assert.Equal(t, "ab1", f.Codigo)

	f = ParseReportFilter("", "7", "")
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, uint(7), *f.CategoryID)
}

func TestCodigoFilterIsCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newRecordedService(db)
	svc.NewCode = func() string { return "XYZ-1234" }
	_, err := svc.Create(context.Background(), CreateReportInput{Location: models.Location{Lat: 1, Lng: 1}})
	require.NoError(t, err)

	var found []models.Report
	require.NoError(t, ParseReportFilter("", "", "yz-12").Apply(db.Model(&models.Report{})).Find(&found).Error)
	assert.Len(t, found, 1)
}

func TestCodigoFilterTreatsWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newRecordedService(db)
	codes := []string{"ABC-1234", "XYZ-9999"}
	svc.NewCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}
	for range 2 {
		_, err := svc.Create(context.Background(), CreateReportInput{Location: models.Location{Lat: 1, Lng: 1}})
		require.NoError(t, err)
	}

	count := func(codigo string) int {
		var found []models.Report
		require.NoError(t, ParseReportFilter("", "", codigo).Apply(db.Model(&models.Report{})).Find(&found).Error)
		return len(found)
	}

	assert.Equal(t, 0, count("_"))
	assert.Equal(t, 0, count("%"))
	assert.Equal(t, 0, count("A_C"))
	assert.Equal(t, 0, count("!"))
	assert.Equal(t, 1, count("c-12"))
	assert.Equal(t, 2, count("-"))
}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="foto"; filename="`+name+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["foto"][0]
}

func TestPhotoStorage(t *testing.T) {
	root := t.TempDir()
	storage := NewPhotoStorage(root, 1)

	rel, err := storage.Save(multipartFile(t, "basural.JPG", []byte("fake-jpeg")))
	require.NoError(t, err)
	assert.Regexp(t, `^reportes/[0-9a-f-]{36}\.jpg$`, rel)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "fake-jpeg", string(data))

	_, err = storage.Save(multipartFile(t, "script.exe", []byte("x")))
	assert.ErrorIs(t, err, ErrPhotoType)

	storage.MaxBytes = 4
	_, err = storage.Save(multipartFile(t, "grande.png", []byte("too large")))
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	require.NoError(t, storage.Remove(rel))
	require.NoError(t, storage.Remove(rel))
	assert.Error(t, storage.Remove("../outside.jpg"))
}
