package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
)

var errNoFile = apierr.Msg(http.StatusBadRequest, "no_file", "No file uploaded")

type FileHandler struct {
	fileService services.FileService
}

func NewFileHandler(fileService services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

func (h *FileHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, formFileError(err, errNoFile))
		return
	}
	if !services.AllowedUpload(fh.Filename) {
		response.Fail(c, apierr.Msg(http.StatusBadRequest, "unsupported_type", "File type not supported"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, response.NewUploadError("open_failed", err))
		return
	}
	defer f.Close()

	file, err := h.fileService.UploadStudyFile(c.Request.Context(), services.UploadInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": "Study file uploaded successfully", "file": file})
}

func (h *FileHandler) List(c *gin.Context) {
	files, err := h.fileService.ListStudyFiles(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"files": files})
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.fileService.DeleteStudyFile(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "File deleted"})
}

// formFileError keeps size and multipart failures distinct from a missing
// field.
func formFileError(err error, missing error) error {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, multipart.ErrMessageTooLarge):
		return err
	case errors.Is(err, http.ErrMissingFile):
		return missing
	case errors.Is(err, http.ErrNotMultipart):
		return missing
	case errors.Is(err, http.ErrMissingBoundary):
		return response.NewUploadError("missing_boundary", err)
	default:
		return response.NewUploadError("multipart_error", err)
	}
}
