package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/mototrade-erp/mototrade/internal/media"
	"github.com/mototrade-erp/mototrade/internal/ocr"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// DocumentStore fetches stored attachment bytes.
type DocumentStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewOCRIntakeHandler processes queued document scans: load the attachment,
// recognize it, and record the extraction on the audit trail so the intake
// desk can pick it up.
func NewOCRIntakeHandler(attachments media.Repository, store DocumentStore, scanner *ocr.Service, auditor *shared.AuditLogger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OCRIntakePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		attachment, err := attachments.Get(ctx, payload.AttachmentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return asynq.SkipRetry
			}
			return err
		}

		body, err := store.Get(ctx, attachment.ObjectKey)
		if err != nil {
			return err
		}
		defer func() {
			_ = body.Close()
		}()

		result, err := scanner.Scan(ctx, attachment.FileName, body)
		if err != nil {
			if errors.Is(err, ocr.ErrNoSerialsFound) {
				logger.Warn("document carried no serials",
					slog.Int64("attachment_id", payload.AttachmentID))
				return asynq.SkipRetry
			}
			return err
		}

		meta := map[string]any{
			"engine_number":  result.Extraction.EngineNumber,
			"chassis_number": result.Extraction.ChassisNumber,
		}
		if result.Matched != nil {
			meta["matched_vehicle_id"] = result.Matched.ID
		}
		return auditor.Record(ctx, shared.AuditLog{
			ActorID:  payload.RequestedBy,
			Action:   "ocr:intake",
			Entity:   "media_attachment",
			EntityID: strconv.FormatInt(payload.AttachmentID, 10),
			Meta:     meta,
		})
	}
}
