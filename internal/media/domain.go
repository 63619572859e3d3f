package media

import (
	"errors"
	"time"
)

// Attachment links one stored object to a vehicle.
type Attachment struct {
	ID          int64     `json:"id"`
	VehicleID   int64     `json:"vehicle_id"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	// ErrUnsupportedType rejects uploads that are not images or PDFs.
	ErrUnsupportedType = errors.New("media: unsupported file type")
	// ErrTooLarge rejects oversized uploads.
	ErrTooLarge = errors.New("media: file too large")
)
