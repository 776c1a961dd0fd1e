package document

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"legal-contracts/internal/domain/document"
	"legal-contracts/internal/infra/memory"
	"legal-contracts/internal/infrastructure/storage"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	repo  *memory.DocumentRepo
	dir   string
	actor Actor
}

func newFixture(t *testing.T, maxSize int64) fixture {
	t.Helper()
	dir := t.TempDir()
	repo := memory.NewStore().Documents()
	svc := NewService(repo, storage.NewLocalStore(dir), maxSize)
	svc.now = func() time.Time { return fixedNow }
	svc.randHex = func() (string, error) { return "0011223344556677", nil }
	return fixture{
		svc:   svc,
		repo:  repo,
		dir:   dir,
		actor: Actor{UserID: "user-1", UserEmail: "user@example.com", IP: "10.0.0.1", UserAgent: "go-test"},
	}
}

func dataURI(mimeType string, payload []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestUploadBase64_StoresFileAndVersion(t *testing.T) {
	f := newFixture(t, 1<<20)
	payload := []byte("%PDF-1.4 fake contract")

	res, err := f.svc.UploadBase64(context.Background(), UploadInput{
		Name:       "nda.pdf",
		Data:       dataURI("application/pdf", payload),
		ContractID: "contract-9",
		Actor:      f.actor,
	})
	require.NoError(t, err)

	sum := sha256.Sum256(payload)
	require.Equal(t, hex.EncodeToString(sum[:]), res.Checksum)
	require.Equal(t, int64(len(payload)), res.FileSize)

	doc := res.Document
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "1772359200000-0011223344556677.pdf", doc.FileName)
	require.Equal(t, "/uploads/"+doc.FileName, doc.FileURL)
	require.Equal(t, "nda.pdf", doc.OriginalFileName)
	require.Equal(t, "contract", doc.DocumentType)
	require.Equal(t, document.StatusDraft, doc.Status)
	require.Equal(t, "contract-9", doc.ContractID)
	require.Equal(t, "user-1", doc.UploadedBy)
	require.Equal(t, "base64", doc.Metadata["uploadMethod"])

	stored, err := os.ReadFile(filepath.Join(f.dir, doc.FileName))
	require.NoError(t, err)
	require.Equal(t, payload, stored)

	versions := f.repo.Versions(doc.ID)
	require.Len(t, versions, 1)
	require.Equal(t, document.InitialVersion, versions[0].VersionNumber)
	require.True(t, versions[0].IsActive)
	require.Equal(t, "Initial upload", versions[0].VersionNotes)
}

type failingRepo struct {
	document.Repository
}

func (failingRepo) CreateWithVersion(context.Context, document.Document, document.Version) (document.Document, document.Version, error) {
	return document.Document{}, document.Version{}, errors.New("insert failed")
}

func TestUploadBase64_RemovesFileWhenInsertFails(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(failingRepo{}, storage.NewLocalStore(dir), 1<<20)
	svc.now = func() time.Time { return fixedNow }
	svc.randHex = func() (string, error) { return "0011223344556677", nil }

	_, err := svc.UploadBase64(context.Background(), UploadInput{
		Name:  "nda.pdf",
		Data:  dataURI("application/pdf", []byte("%PDF-1.4")),
		Actor: Actor{UserID: "user-1", UserEmail: "user@example.com"},
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUploadBase64_Validation(t *testing.T) {
	f := newFixture(t, 8)
	cases := []struct {
		name string
		in   UploadInput
	}{
		{"missing name", UploadInput{Data: dataURI("text/plain", []byte("a")), Actor: f.actor}},
		{"missing data", UploadInput{Name: "a.txt", Actor: f.actor}},
		{"not a data uri", UploadInput{Name: "a.txt", Data: "hello", Actor: f.actor}},
		{"bad base64", UploadInput{Name: "a.txt", Data: "data:text/plain;base64,@@@@", Actor: f.actor}},
		{"too large", UploadInput{Name: "a.txt", Data: dataURI("text/plain", []byte("0123456789")), Actor: f.actor}},
		{"anonymous", UploadInput{Name: "a.txt", Data: dataURI("text/plain", []byte("a"))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UploadBase64(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestUploadBase64_UnknownMimeFallsBackToBin(t *testing.T) {
	f := newFixture(t, 0)
	res, err := f.svc.UploadBase64(context.Background(), UploadInput{
		Name:         "blob",
		Data:         dataURI("application/x-legal-unknown", []byte{1, 2, 3}),
		DocumentType: "annex",
		Actor:        f.actor,
	})
	require.NoError(t, err)
	require.Equal(t, "1772359200000-0011223344556677.bin", res.Document.FileName)
	require.Equal(t, "annex", res.Document.DocumentType)
}

func TestSign(t *testing.T) {
	f := newFixture(t, 0)
	res, err := f.svc.UploadBase64(context.Background(), UploadInput{
		Name: "a.txt", Data: dataURI("text/plain", []byte("terms")), Actor: f.actor,
	})
	require.NoError(t, err)

	doc, signedAt, err := f.svc.Sign(context.Background(), SignInput{
		DocumentID:    res.Document.ID,
		Signature:     "J. Doe",
		SignatureData: map[string]interface{}{"method": "typed"},
		Actor:         f.actor,
	})
	require.NoError(t, err)
	require.Equal(t, fixedNow, signedAt)
	require.Equal(t, document.StatusSigned, doc.Status)

	stored, err := f.repo.FindByID(context.Background(), res.Document.ID)
	require.NoError(t, err)
	require.Equal(t, document.StatusSigned, stored.Status)
	sig, ok := stored.SignatureStatus["user-1"]
	require.True(t, ok)
	require.Equal(t, "J. Doe", sig.Signature)
	require.Equal(t, "10.0.0.1", sig.IPAddress)

	_, _, err = f.svc.Sign(context.Background(), SignInput{DocumentID: "missing", Actor: f.actor})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDownload(t *testing.T) {
	f := newFixture(t, 0)
	res, err := f.svc.UploadBase64(context.Background(), UploadInput{
		Name: "a.txt", Data: dataURI("text/plain", []byte("terms")), Actor: f.actor,
	})
	require.NoError(t, err)

	doc, rc, err := f.svc.Download(context.Background(), res.Document.ID, f.actor)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, "terms", string(body))
	require.Len(t, doc.AccessLog, 1)

	stored, err := f.repo.FindByID(context.Background(), res.Document.ID)
	require.NoError(t, err)
	require.Len(t, stored.AccessLog, 1)
	require.Equal(t, "download", stored.AccessLog[0].Action)

	require.NoError(t, os.Remove(filepath.Join(f.dir, res.Document.FileName)))
	_, _, err = f.svc.Download(context.Background(), res.Document.ID, f.actor)
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.svc.Download(context.Background(), "missing", f.actor)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_Paging(t *testing.T) {
	f := newFixture(t, 0)
	for i := 0; i < 3; i++ {
		_, err := f.svc.UploadBase64(context.Background(), UploadInput{
			Name: "a.txt", Data: dataURI("text/plain", []byte{byte('a' + i)}), Actor: f.actor,
		})
		require.NoError(t, err)
	}
	docs, total, err := f.svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, docs, 1)
}
