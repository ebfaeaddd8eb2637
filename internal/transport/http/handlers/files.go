package http_handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/application/documents"
	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/logger"
	"github.com/baechuer/chatcpe-service/internal/transport/http/dto"
	"github.com/baechuer/chatcpe-service/internal/transport/http/middleware"
	"github.com/baechuer/chatcpe-service/internal/transport/http/response"
)

// parts beyond this are spooled to temp files by mime/multipart
const multipartMemory = 8 << 20

type DocumentService interface {
	Upload(ctx context.Context, actor domain.User, parts []documents.Part) ([]domain.File, error)
	List(ctx context.Context, actor domain.User) ([]domain.File, error)
	Forms(ctx context.Context) ([]domain.FormLink, error)
}

type FilesHandler struct {
	svc       DocumentService
	maxUpload int64 // bytes
}

func NewFilesHandler(svc DocumentService, maxUploadMB int64) *FilesHandler {
	return &FilesHandler{svc: svc, maxUpload: maxUploadMB << 20}
}

// Upload handles multipart POST /files/upload with one or more "files" parts.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	if r.ContentLength > h.maxUpload {
		response.WriteError(w, r, domain.ErrUploadTooLarge(h.maxUpload>>20))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			response.WriteError(w, r, domain.ErrUploadTooLarge(h.maxUpload>>20))
			return
		}
		response.WriteError(w, r, domain.ErrInvalidField("files", "invalid multipart body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	parts := make([]documents.Part, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.WriteError(w, r, domain.ErrInvalidField("files", "unreadable part"))
			return
		}
		opened = append(opened, f)
		parts = append(parts, documents.Part{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	saved, err := h.svc.Upload(r.Context(), actor, parts)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	names := make([]string, 0, len(saved))
	for _, f := range saved {
		names = append(names, f.Filename)
	}
	logger.WithCtx(r.Context()).Info().Int64("user_id", actor.ID).Strs("filenames", names).Msg("files_uploaded")

	response.Created(w, dto.UploadData{Filenames: names, Files: dto.NewFileList(saved)})
}

// mime/multipart does not always wrap the MaxBytesReader error.
func isTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large")
}

func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	list, err := h.svc.List(r.Context(), actor)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewFileList(list))
}

func (h *FilesHandler) Forms(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.Forms(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewFormList(links))
}
