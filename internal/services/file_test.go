package services

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/gcp"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type memBucket struct {
	objects map[string]string
	deleted []string
}

func (b *memBucket) UploadFile(_ dbctx.Context, key string, file io.Reader, _ string) error {
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.objects[key] = string(raw)
	return nil
}

func (b *memBucket) DeleteFile(_ dbctx.Context, key string) error {
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memBucket) GetPublicURL(key string) string { return "http://localhost:8080/uploads/" + key }
func (b *memBucket) Mode() gcp.ObjectStorageMode    { return gcp.ObjectStorageModeLocal }
func (b *memBucket) LocalDir() string               { return "" }
func (b *memBucket) Close() error                   { return nil }

type memStudyFileRepo struct {
	repos.StudyFileRepo
	rows      map[uuid.UUID]*types.StudyFile
	createErr error
}

func (r *memStudyFileRepo) Create(_ dbctx.Context, files []*types.StudyFile) ([]*types.StudyFile, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, f := range files {
		r.rows[f.ID] = f
	}
	return files, nil
}

func (r *memStudyFileRepo) GetForUser(_ dbctx.Context, userID, id uuid.UUID) (*types.StudyFile, error) {
	f, ok := r.rows[id]
	if !ok || f.UserID != userID {
		return nil, nil
	}
	return f, nil
}

func (r *memStudyFileRepo) FullDeleteByIDs(_ dbctx.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

func newTestFileService(repo *memStudyFileRepo, bucket *memBucket) *fileService {
	svc := NewFileService(nil, logger.Nop(), bucket, repo).(*fileService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestAllowedUpload(t *testing.T) {
	for _, name := range []string{"a.pdf", "notes.MD", "deck.pptx", "x.ppt", "doc.docx", "t.txt"} {
		if !AllowedUpload(name) {
			t.Fatalf("%s should be allowed", name)
		}
	}
	for _, name := range []string{"a.exe", "noext", "image.png"} {
		if AllowedUpload(name) {
			t.Fatalf("%s should be rejected", name)
		}
	}
}

func TestUploadStudyFile(t *testing.T) {
	bucket := &memBucket{objects: map[string]string{}}
	repo := &memStudyFileRepo{rows: map[uuid.UUID]*types.StudyFile{}}
	svc := newTestFileService(repo, bucket)
	uid := uuid.New()
	ctx := asUser(uid)

	file, err := svc.UploadStudyFile(ctx, UploadInput{Name: "lecture.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")})
	if err != nil {
		t.Fatalf("UploadStudyFile: %v", err)
	}
	wantKey := "study_files/1700000000000-lecture.pdf"
	if file.StorageKey != wantKey || file.Path != "http://localhost:8080/uploads/"+wantKey {
		t.Fatalf("unexpected file: %+v", file)
	}
	if bucket.objects[wantKey] != "%PDF" {
		t.Fatalf("object not stored: %v", bucket.objects)
	}

	if _, err := svc.UploadStudyFile(ctx, UploadInput{Name: "virus.exe", Body: strings.NewReader("x")}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad extension, got %v", err)
	}
	if _, err := svc.UploadStudyFile(ctx, UploadInput{}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing file, got %v", err)
	}

	if err := svc.DeleteStudyFile(asUser(uuid.New()), file.ID.String()); apierr.StatusOf(err, 0) != http.StatusNotFound {
		t.Fatalf("foreign delete should 404, got %v", err)
	}
	if err := svc.DeleteStudyFile(ctx, file.ID.String()); err != nil {
		t.Fatalf("DeleteStudyFile: %v", err)
	}
	if len(repo.rows) != 0 || len(bucket.objects) != 0 {
		t.Fatalf("expected row and object removed: rows=%d objects=%d", len(repo.rows), len(bucket.objects))
	}
}

func TestUploadStudyFileRemovesObjectWhenRowFails(t *testing.T) {
	bucket := &memBucket{objects: map[string]string{}}
	repo := &memStudyFileRepo{rows: map[uuid.UUID]*types.StudyFile{}, createErr: errors.New("db down")}
	svc := newTestFileService(repo, bucket)

	_, err := svc.UploadStudyFile(asUser(uuid.New()), UploadInput{Name: "notes.txt", Body: strings.NewReader("hi")})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(bucket.objects) != 0 || len(bucket.deleted) != 1 {
		t.Fatalf("expected uploaded object removed, objects=%v deleted=%v", bucket.objects, bucket.deleted)
	}
}

func TestUploadRequiresUser(t *testing.T) {
	svc := newTestFileService(&memStudyFileRepo{rows: map[uuid.UUID]*types.StudyFile{}}, &memBucket{objects: map[string]string{}})
	if _, err := svc.UploadStudyFile(asUser(uuid.Nil), UploadInput{Name: "a.pdf", Body: strings.NewReader("x")}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
}
