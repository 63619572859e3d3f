package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

const maxUploadSize = 20 << 20 // 20 MiB

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ObjectStore is the blob backend for attachments.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ScanQueue enqueues background OCR intake for an uploaded document.
type ScanQueue interface {
	EnqueueScan(ctx context.Context, attachmentID, requestedBy int64) error
}

// Service stores vehicle documents and photos.
type Service struct {
	repo   Repository
	store  ObjectStore
	audit  AuditPort
	scans  ScanQueue
	urlTTL time.Duration
}

// NewService builds the media service. scans may be nil when no worker is
// deployed; uploads then skip OCR intake.
func NewService(repo Repository, store ObjectStore, audit AuditPort, scans ScanQueue, urlTTL time.Duration) *Service {
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &Service{repo: repo, store: store, audit: audit, scans: scans, urlTTL: urlTTL}
}

// Upload sniffs the content, stores the object, and records the attachment.
// The declared content type is ignored; the bytes decide. With scan set the
// attachment is queued for OCR intake after the row commits.
func (s *Service) Upload(ctx context.Context, vehicleID int64, fileName string, body io.Reader, scan bool, actorID int64) (Attachment, error) {
	if vehicleID <= 0 {
		return Attachment{}, fmt.Errorf("media: invalid vehicle id")
	}

	data, err := io.ReadAll(io.LimitReader(body, maxUploadSize+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("media: read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return Attachment{}, ErrTooLarge
	}

	mime := mimetype.Detect(data)
	ext, ok := allowedTypes[mime.String()]
	if !ok {
		return Attachment{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	key := fmt.Sprintf("vehicles/%d/%s%s", vehicleID, uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, mime.String(), bytes.NewReader(data)); err != nil {
		return Attachment{}, err
	}

	attachment, err := s.repo.Create(ctx, Attachment{
		VehicleID:   vehicleID,
		ObjectKey:   key,
		FileName:    fileName,
		ContentType: mime.String(),
		SizeBytes:   int64(len(data)),
		UploadedBy:  actorID,
	})
	if err != nil {
		// The row is the source of truth; orphaned objects get cleaned
		// up by the next bucket sweep.
		_ = s.store.Delete(ctx, key)
		return Attachment{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "media:upload",
			Entity:   "media_attachment",
			EntityID: strconv.FormatInt(attachment.ID, 10),
			Meta: map[string]any{
				"vehicle_id":   vehicleID,
				"content_type": attachment.ContentType,
				"size_bytes":   attachment.SizeBytes,
			},
		})
	}

	if scan && s.scans != nil {
		// Best effort: a lost scan can be re-run from the attachment.
		_ = s.scans.EnqueueScan(ctx, attachment.ID, actorID)
	}
	return attachment, nil
}

// ListByVehicle returns a vehicle's attachments.
func (s *Service) ListByVehicle(ctx context.Context, vehicleID int64) ([]Attachment, error) {
	return s.repo.ListByVehicle(ctx, vehicleID)
}

// DownloadURL returns a presigned, time-limited URL for an attachment.
func (s *Service) DownloadURL(ctx context.Context, id int64) (string, error) {
	attachment, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, attachment.ObjectKey, s.urlTTL)
}

// Delete removes the attachment row and its stored object.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	attachment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.store.Delete(ctx, attachment.ObjectKey)

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "media:delete",
			Entity:   "media_attachment",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"object_key": attachment.ObjectKey},
		})
	}
	return nil
}
