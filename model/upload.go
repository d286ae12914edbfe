package model

import "time"

// UploadedFile is the metadata kept for a file sent to /api/upload.
type UploadedFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`

	// ObjectName is set when the bytes were stored in the media bucket.
	ObjectName string `json:"-"`
}
