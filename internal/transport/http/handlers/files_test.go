package http_handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/chatcpe-service/internal/application/documents"
	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/transport/http/dto"
)

type fakeDocService struct {
	parts    []documents.Part
	bodies   []string
	err      error
	forms    []domain.FormLink
	formsErr error
}

func (f *fakeDocService) Upload(ctx context.Context, actor domain.User, parts []documents.Part) ([]domain.File, error) {
	f.parts = parts
	for _, p := range parts {
		b, _ := io.ReadAll(p.Body)
		f.bodies = append(f.bodies, string(b))
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.File, 0, len(parts))
	for i, p := range parts {
		out = append(out, domain.File{ID: int64(i + 1), Filename: p.Filename, FileType: domain.MimePDF, SizeBytes: p.Size})
	}
	return out, nil
}

func (f *fakeDocService) List(ctx context.Context, actor domain.User) ([]domain.File, error) {
	return []domain.File{{ID: 1, Filename: "a.pdf"}}, f.err
}

func (f *fakeDocService) Forms(ctx context.Context) ([]domain.FormLink, error) {
	return f.forms, f.formsErr
}

type upload struct {
	field, name, ctype, body string
}

func multipartRequest(t *testing.T, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.ctype)
		pw, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = pw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const pdf = "%PDF-1.7\n%%EOF\n"

func TestUpload_PassesEveryPart(t *testing.T) {
	svc := &fakeDocService{}
	req := withUser(multipartRequest(t,
		upload{"files", "a.pdf", "application/pdf", pdf},
		upload{"files", "b.pdf", "application/pdf", pdf + "more"},
		upload{"other", "c.pdf", "application/pdf", pdf},
	), staffUser)

	rr := serve(NewFilesHandler(svc, 1).Upload, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	require.Len(t, svc.parts, 2, "only the files field is uploaded")
	assert.Equal(t, "a.pdf", svc.parts[0].Filename)
	assert.Equal(t, "application/pdf", svc.parts[0].ContentType)
	assert.Equal(t, int64(len(pdf)), svc.parts[0].Size)
	assert.Equal(t, pdf+"more", svc.bodies[1])

	var data dto.UploadData
	readData(t, rr, &data)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, data.Filenames)
}

func TestUpload_TooLarge_413(t *testing.T) {
	svc := &fakeDocService{}
	big := string(bytes.Repeat([]byte("x"), 2<<20))
	req := withUser(multipartRequest(t, upload{"files", "a.pdf", "application/pdf", pdf + big}), staffUser)

	rr := serve(NewFilesHandler(svc, 1).Upload, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "upload_too_large", errCode(t, rr))
	assert.Nil(t, svc.parts)
}

func TestUpload_TooLarge_UnknownLength(t *testing.T) {
	svc := &fakeDocService{}
	big := string(bytes.Repeat([]byte("x"), 2<<20))
	req := withUser(multipartRequest(t, upload{"files", "a.pdf", "application/pdf", pdf + big}), staffUser)
	req.ContentLength = -1

	rr := serve(NewFilesHandler(svc, 1).Upload, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestUpload_Errors(t *testing.T) {
	rr := serve(NewFilesHandler(&fakeDocService{}, 1).Upload, multipartRequest(t))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := withUser(httptest.NewRequest(http.MethodPost, "/files/upload", bytes.NewReader([]byte("not multipart"))), staffUser)
	req.Header.Set("Content-Type", "text/plain")
	rr = serve(NewFilesHandler(&fakeDocService{}, 1).Upload, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc := &fakeDocService{err: domain.ErrInvalidFileType("x.txt")}
	req = withUser(multipartRequest(t, upload{"files", "x.txt", "text/plain", "hello"}), staffUser)
	rr = serve(NewFilesHandler(svc, 1).Upload, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_file_type", errCode(t, rr))
}

func TestFilesList(t *testing.T) {
	h := NewFilesHandler(&fakeDocService{}, 1)
	rr := serve(h.List, withUser(httptest.NewRequest(http.MethodGet, "/files", nil), staffUser))
	require.Equal(t, http.StatusOK, rr.Code)

	var list []dto.FileView
	readData(t, rr, &list)
	assert.Len(t, list, 1)
}

func TestForms(t *testing.T) {
	svc := &fakeDocService{forms: []domain.FormLink{{Code: "KMUTT 01", Title: "Leave", URL: "https://x/a.pdf"}}}
	rr := serve(NewFilesHandler(svc, 1).Forms, httptest.NewRequest(http.MethodGet, "/documents/forms", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[{"code":"KMUTT 01","title":"Leave","url":"https://x/a.pdf"}]}`, rr.Body.String())

	svc = &fakeDocService{formsErr: domain.ErrFormsUnavailable(errors.New("timeout"))}
	rr = serve(NewFilesHandler(svc, 1).Forms, httptest.NewRequest(http.MethodGet, "/documents/forms", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "forms_unavailable", errCode(t, rr))
}
