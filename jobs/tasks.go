package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-derives agent balances from the ledger and
	// reports drift against the stored balance.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportWarmup recomputes and caches the standing reports.
	TaskReportWarmup = "reports:warmup"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
	// TaskOCRIntake recognizes an uploaded registration document.
	TaskOCRIntake = "ocr:intake"
)

// OCRIntakePayload points at a stored document to recognize.
type OCRIntakePayload struct {
	AttachmentID int64 `json:"attachment_id"`
	RequestedBy  int64 `json:"requested_by"`
}

// NewOCRIntakeTask constructs an OCR intake task.
func NewOCRIntakeTask(payload OCRIntakePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOCRIntake, data), nil
}

// NewLedgerIntegrityTask constructs a ledger integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewReportWarmupTask constructs a report warmup task.
func NewReportWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportWarmup, nil)
}

// NewIdempotencyCleanupTask constructs a key-cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
