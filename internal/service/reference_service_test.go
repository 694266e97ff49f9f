package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/commission-api/pkg/errors"
	"github.com/noah-isme/commission-api/pkg/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngUpload(name string) ReferenceUpload {
	return ReferenceUpload{Filename: name, Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
}

func newReferenceServiceForTest(t *testing.T) (*ReferenceService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewReferenceService(store, ReferenceConfig{MaxImages: 2, PublicBaseURL: "https://cdn.example.com/"}, nil), dir
}

func TestReferenceServiceStoreAndOpen(t *testing.T) {
	svc, dir := newReferenceServiceForTest(t)
	uploads := []ReferenceUpload{pngUpload("pose.png")}
	require.NoError(t, svc.Validate(0, uploads))
	require.Equal(t, "image/png", uploads[0].MimeType)

	urls, err := svc.Store(context.Background(), uploads)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.True(t, strings.HasPrefix(urls[0], "https://cdn.example.com/references/proposals/"))
	require.True(t, svc.Owns(urls[0]))
	require.False(t, svc.Owns("https://elsewhere.example.com/a.png"))

	key, ok := svc.KeyFor(urls[0])
	require.True(t, ok)
	_, err = os.Stat(filepath.Join(dir, key))
	require.NoError(t, err)

	file, err := svc.Open(key)
	require.NoError(t, err)
	content, err := io.ReadAll(file.File)
	require.NoError(t, err)
	file.File.Close()
	require.Equal(t, pngHeader, content)
	require.Equal(t, "image/png", file.MimeType)

	svc.Discard(urls)
	_, err = svc.Open(key)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReferenceServiceValidate(t *testing.T) {
	svc, _ := newReferenceServiceForTest(t)

	err := svc.Validate(2, []ReferenceUpload{pngUpload("third.png")})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	text := []byte("just some notes")
	err = svc.Validate(0, []ReferenceUpload{{Filename: "notes.png", Size: int64(len(text)), Content: bytes.NewReader(text)}})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.Validate(0, []ReferenceUpload{{Filename: "empty.png", Content: bytes.NewReader(nil)}})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestReferenceServiceKeyForRejectsTraversal(t *testing.T) {
	svc, _ := newReferenceServiceForTest(t)
	_, ok := svc.KeyFor("https://cdn.example.com/references/../secret")
	require.False(t, ok)
}
