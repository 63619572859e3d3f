package ocr

import (
	"context"
	"errors"
	"io"

	"github.com/mototrade-erp/mototrade/internal/inventory"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Recognizer turns a document image into text.
type Recognizer interface {
	Recognize(ctx context.Context, filename string, image io.Reader) (string, error)
}

// InventoryLookup resolves serials against registered vehicles.
type InventoryLookup interface {
	Lookup(ctx context.Context, serial string) (inventory.Vehicle, error)
}

// IntakeResult is the outcome of scanning one registration document.
type IntakeResult struct {
	Extraction Extraction         `json:"extraction"`
	Matched    *inventory.Vehicle `json:"matched_vehicle,omitempty"`
}

// ErrNoSerialsFound means the document text carried no usable serial.
var ErrNoSerialsFound = errors.New("ocr: no engine or chassis number found in document")

// Service runs document intake: recognize, extract, match.
type Service struct {
	recognizer Recognizer
	inventory  InventoryLookup
}

// NewService builds the OCR intake service.
func NewService(recognizer Recognizer, inv InventoryLookup) *Service {
	return &Service{recognizer: recognizer, inventory: inv}
}

// Scan recognizes the document and extracts the serials. When a serial
// matches a registered vehicle, that vehicle is returned alongside.
func (s *Service) Scan(ctx context.Context, filename string, image io.Reader) (IntakeResult, error) {
	text, err := s.recognizer.Recognize(ctx, filename, image)
	if err != nil {
		return IntakeResult{}, err
	}

	extraction := Parse(text)
	if extraction.EngineNumber == "" && extraction.ChassisNumber == "" {
		return IntakeResult{Extraction: extraction}, ErrNoSerialsFound
	}

	result := IntakeResult{Extraction: extraction}
	if s.inventory != nil {
		for _, serial := range []string{extraction.EngineNumber, extraction.ChassisNumber} {
			if serial == "" {
				continue
			}
			vehicle, err := s.inventory.Lookup(ctx, serial)
			if err == nil {
				result.Matched = &vehicle
				break
			}
			if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, inventory.ErrInvalidIdentity) {
				return IntakeResult{}, err
			}
		}
	}
	return result, nil
}
