package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

// Part is one uploaded file as received from the transport layer.
type Part struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type Service struct {
	store Storage
	files FileRepo
	forms FormsSource
	lg    zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Storage, files FileRepo, forms FormsSource, lg zerolog.Logger) *Service {
	return &Service{
		store: store,
		files: files,
		forms: forms,
		lg:    lg.With().Str("component", "documents_service").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Upload stores PDFs and records them. Every part is checked before any byte
// is written; a storage or database failure removes what was already stored.
func (s *Service) Upload(ctx context.Context, actor domain.User, parts []Part) ([]domain.File, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, domain.ErrMissingField("files")
	}
	for _, p := range parts {
		if err := checkPDF(p); err != nil {
			return nil, err
		}
	}

	uploader := actor.ID
	var stored []string
	records := make([]domain.File, 0, len(parts))

	for _, p := range parts {
		name := cleanFilename(p.Filename)
		key := s.objectKey(name)

		loc, err := s.store.Put(ctx, key, p.Body, p.Size, domain.MimePDF)
		if err != nil {
			s.cleanup(ctx, stored)
			return nil, domain.ErrStorageUnavailable(err)
		}
		stored = append(stored, key)

		records = append(records, domain.File{
			UserID:    &uploader,
			Filename:  name,
			FileType:  domain.MimePDF,
			RawPath:   loc,
			SizeBytes: p.Size,
		})
	}

	saved, err := s.files.CreateMany(ctx, records)
	if err != nil {
		s.cleanup(ctx, stored)
		return nil, err
	}

	s.lg.Info().Int64("user_id", actor.ID).Int("count", len(saved)).Msg("files uploaded")
	return saved, nil
}

func (s *Service) List(ctx context.Context, actor domain.User) ([]domain.File, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	return s.files.List(ctx)
}

// Forms lists the registrar's downloadable forms.
func (s *Service) Forms(ctx context.Context) ([]domain.FormLink, error) {
	links, err := s.forms.Fetch(ctx)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.ErrFormsUnavailable(err)
	}
	return links, nil
}

func (s *Service) objectKey(filename string) string {
	return fmt.Sprintf("%s/%s-%s", s.now().UTC().Format("2006/01"), s.newID(), filename)
}

func (s *Service) cleanup(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			s.lg.Warn().Err(err).Str("key", k).Msg("cleanup of stored upload failed")
		}
	}
}

// checkPDF requires both the declared type and the leading bytes to say PDF.
func checkPDF(p Part) error {
	mt, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil || mt != domain.MimePDF || p.Body == nil {
		return domain.ErrInvalidFileType(p.Filename)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(p.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return domain.ErrInvalidFileType(p.Filename)
	}
	if _, err := p.Body.Seek(0, io.SeekStart); err != nil {
		return domain.ErrInvalidFileType(p.Filename)
	}
	if http.DetectContentType(head[:n]) != domain.MimePDF {
		return domain.ErrInvalidFileType(p.Filename)
	}
	return nil
}

func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		return "upload.pdf"
	}
	return name
}
