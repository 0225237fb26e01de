package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/gcp"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const studyFileNotFound = "File not found"

var allowedUploadExt = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
	".md":   true,
	".pptx": true,
	".ppt":  true,
}

type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FileService interface {
	UploadStudyFile(ctx context.Context, in UploadInput) (*types.StudyFile, error)
	ListStudyFiles(ctx context.Context) ([]*types.StudyFile, error)
	DeleteStudyFile(ctx context.Context, id string) error
}

type fileService struct {
	db            *gorm.DB
	log           *logger.Logger
	bucketService gcp.BucketService
	studyFileRepo repos.StudyFileRepo
	now           func() time.Time
}

func NewFileService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucketService gcp.BucketService,
	studyFileRepo repos.StudyFileRepo,
) FileService {
	return &fileService{
		db:            db,
		log:           baseLog.With("service", "FileService"),
		bucketService: bucketService,
		studyFileRepo: studyFileRepo,
		now:           time.Now,
	}
}

// AllowedUpload reports whether name carries a supported study file extension.
func AllowedUpload(name string) bool {
	return allowedUploadExt[strings.ToLower(filepath.Ext(name))]
}

// StudyFileKey is study_files/<unix millis>-<base name>.
func StudyFileKey(name string, at time.Time) string {
	return fmt.Sprintf("study_files/%d-%s", at.UnixMilli(), filepath.Base(name))
}

// UploadStudyFile stores the object first and removes it again when the row
// cannot be written.
func (fs *fileService) UploadStudyFile(ctx context.Context, in UploadInput) (*types.StudyFile, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if in.Body == nil || name == "" {
		return nil, badRequest("No file uploaded")
	}
	if !AllowedUpload(name) {
		return nil, badRequest("File type not supported")
	}

	key := StudyFileKey(name, fs.now())
	dbc := dbctx.From(ctx)
	if err := fs.bucketService.UploadFile(dbc, key, in.Body, in.ContentType); err != nil {
		return nil, fmt.Errorf("upload study file: %w", err)
	}

	file := &types.StudyFile{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Path:        fs.bucketService.GetPublicURL(key),
		StorageKey:  key,
		ContentType: in.ContentType,
		SizeBytes:   in.Size,
	}
	if _, err := fs.studyFileRepo.Create(dbc, []*types.StudyFile{file}); err != nil {
		if delErr := fs.bucketService.DeleteFile(dbc, key); delErr != nil {
			fs.log.Warn("Failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("save study file: %w", err)
	}
	fs.log.Info("Study file uploaded", "user_id", userID, "key", key, "size", in.Size)
	return file, nil
}

func (fs *fileService) ListStudyFiles(ctx context.Context) ([]*types.StudyFile, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return fs.studyFileRepo.ListByUser(dbctx.From(ctx), userID)
}

func (fs *fileService) DeleteStudyFile(ctx context.Context, id string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	fileID, err := parseID(id, studyFileNotFound)
	if err != nil {
		return err
	}
	dbc := dbctx.From(ctx)
	file, err := fs.studyFileRepo.GetForUser(dbc, userID, fileID)
	if err != nil {
		return fmt.Errorf("load study file: %w", err)
	}
	if file == nil {
		return notFound(studyFileNotFound)
	}
	if err := fs.bucketService.DeleteFile(dbc, file.StorageKey); err != nil {
		fs.log.Warn("Failed to delete stored object", "key", file.StorageKey, "error", err)
	}
	if err := fs.studyFileRepo.FullDeleteByIDs(dbc, []uuid.UUID{file.ID}); err != nil {
		return fmt.Errorf("delete study file: %w", err)
	}
	return nil
}
