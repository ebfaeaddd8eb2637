package dto

import (
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

type FileView struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"filetype"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func NewFileList(list []domain.File) []FileView {
	out := make([]FileView, 0, len(list))
	for _, f := range list {
		out = append(out, FileView{
			ID:         f.ID,
			UserID:     f.UserID,
			Filename:   f.Filename,
			FileType:   f.FileType,
			SizeBytes:  f.SizeBytes,
			UploadedAt: f.UploadedAt,
		})
	}
	return out
}

type UploadData struct {
	Filenames []string   `json:"filenames"`
	Files     []FileView `json:"files"`
}

type FormView struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func NewFormList(list []domain.FormLink) []FormView {
	out := make([]FormView, 0, len(list))
	for _, f := range list {
		out = append(out, FormView{Code: f.Code, Title: f.Title, URL: f.URL})
	}
	return out
}
