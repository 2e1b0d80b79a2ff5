package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestMediaService_UploadListDelete(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	seedUser(t, db, "other")
	journal := seedJournal(t, db, owner, "Daily")
	ctx := context.Background()

	entry, err := NewEntryService(db).CreateEntry(ctx, journal.ID, entryReq("A", "x", "2024-05-10"), "owner")
	require.NoError(t, err)

	store := newFakeObjects()
	svc := NewMediaService(db, store, 1024)

	uploaded, err := svc.Upload(ctx, journal.ID, entry.ID, fileHeader(t, "../../beach.PNG", pngBytes), "sunset", "owner")
	require.NoError(t, err)
	assert.Equal(t, "image/png", uploaded.FileType)
	assert.Equal(t, "beach.PNG", uploaded.OriginalFilename)
	assert.Equal(t, "sunset", uploaded.Description)
	assert.True(t, strings.HasSuffix(uploaded.Filename, ".png"))
	assert.True(t, strings.HasPrefix(uploaded.URL, "https://cdn.example.com/entries/"))
	assert.Len(t, store.objects, 1)

	list, err := svc.List(ctx, journal.ID, entry.ID, "owner")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uploaded.ID, list[0].ID)

	_, err = svc.List(ctx, journal.ID, entry.ID, "other")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	require.NoError(t, svc.Delete(ctx, journal.ID, entry.ID, uploaded.ID, "owner"))
	assert.Empty(t, store.objects)

	err = svc.Delete(ctx, journal.ID, entry.ID, uploaded.ID, "owner")
	assert.EqualError(t, err, "Media not found")
}

func TestMediaService_UploadRejects(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	journal := seedJournal(t, db, owner, "Daily")
	ctx := context.Background()

	entry, err := NewEntryService(db).CreateEntry(ctx, journal.ID, entryReq("A", "x", "2024-05-10"), "owner")
	require.NoError(t, err)

	store := newFakeObjects()
	svc := NewMediaService(db, store, 32)

	_, err = svc.Upload(ctx, journal.ID, entry.ID, fileHeader(t, "big.png", pngBytes), "", "owner")
	assert.True(t, errors.Is(err, common.ErrBadRequest), "too large")

	svc = NewMediaService(db, store, 1024)
	_, err = svc.Upload(ctx, journal.ID, entry.ID, fileHeader(t, "notes.txt", []byte("plain text notes")), "", "owner")
	assert.True(t, errors.Is(err, common.ErrBadRequest), "type not allowed")

	_, err = svc.Upload(ctx, journal.ID, 999, fileHeader(t, "a.png", pngBytes), "", "owner")
	assert.EqualError(t, err, "Entry not found")

	assert.Empty(t, store.objects)

	disabled := NewMediaService(db, nil, 1024)
	_, err = disabled.Upload(ctx, journal.ID, entry.ID, fileHeader(t, "a.png", pngBytes), "", "owner")
	assert.EqualError(t, err, "Media storage is not enabled")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.png", sanitizeFilename("C:\\Users\\kim\\photo.png"))
	assert.Equal(t, "photo.png", sanitizeFilename("../../etc/photo.png"))
	assert.Equal(t, "file", sanitizeFilename(""))
	assert.Equal(t, "file", sanitizeFilename("/"))
}

func TestSanitizeFilename_TruncatesOnRuneBoundary(t *testing.T) {
	// 3바이트 문자 100개 + 확장자 = 304바이트, 255바이트 지점이 문자 중간
	long := strings.Repeat("사", 100) + ".png"

	got := sanitizeFilename(long)

	assert.True(t, utf8.ValidString(got), "must stay valid UTF-8")
	assert.LessOrEqual(t, len(got), maxFilenameBytes)
	assert.True(t, strings.HasSuffix(got, ".png"))
	assert.Equal(t, strings.Repeat("사", 83)+".png", got)

	ascii := strings.Repeat("a", 300) + ".txt"
	assert.Len(t, sanitizeFilename(ascii), maxFilenameBytes)
}
