package domain

import "time"

const MimePDF = "application/pdf"

// File is an uploaded document record. RawPath is the storage key.
type File struct {
	ID         int64
	UserID     *int64
	Filename   string
	FileType   string
	RawPath    string
	SizeBytes  int64
	UploadedAt time.Time
}

// FormLink is one downloadable form scraped from the registrar page.
type FormLink struct {
	Code  string
	Title string
	URL   string
}
