package ocr

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/inventory"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

func TestParseExtractsBothSerials(t *testing.T) {
	text := `
MOTOR VEHICLE REGISTRATION
Owner: SOME PERSON
Engine No: JL1P52FMH-9001234
Chassis No: LF3PCK5A1MB012345
Issued 2026-08-01
`
	out := Parse(text)
	require.Equal(t, "JL1P52FMH-9001234", out.EngineNumber)
	require.Equal(t, ConfidenceHigh, out.EngineConfidence)
	require.Equal(t, "LF3PCK5A1MB012345", out.ChassisNumber)
	require.Equal(t, ConfidenceHigh, out.ChassisConfidence)
}

func TestParseFallsBackToBareVin(t *testing.T) {
	out := Parse("document text LF3PCK5A1MB012345 without any label")
	require.Equal(t, "LF3PCK5A1MB012345", out.ChassisNumber)
	require.Equal(t, ConfidenceLow, out.ChassisConfidence)
	require.Empty(t, out.EngineNumber)
}

func TestParseHandlesLabelVariants(t *testing.T) {
	cases := map[string]string{
		"Motor Number: ABC-123456": "ABC-123456",
		"ENGINE # ABC-123456":      "ABC-123456",
		"engine no. abc-123456":    "ABC-123456",
		"Engine\tABC-123456":       "ABC-123456",
	}
	for text, want := range cases {
		out := Parse(text)
		require.Equal(t, want, out.EngineNumber, "input %q", text)
	}
}

func TestParseVinLabelMapsToChassis(t *testing.T) {
	out := Parse("VIN: LF3PCK5A1MB012345")
	require.Equal(t, "LF3PCK5A1MB012345", out.ChassisNumber)
	require.Empty(t, out.EngineNumber)
}

func TestParseIgnoresUnlabeledText(t *testing.T) {
	out := Parse("random words ABC-123456 with no labels")
	require.Empty(t, out.EngineNumber)
	require.Empty(t, out.ChassisNumber)
}

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Recognize(context.Context, string, io.Reader) (string, error) {
	return f.text, f.err
}

type fakeLookup struct {
	vehicles map[string]inventory.Vehicle
}

func (f *fakeLookup) Lookup(_ context.Context, serial string) (inventory.Vehicle, error) {
	serial = inventory.NormalizeIdentity(serial)
	if v, ok := f.vehicles[serial]; ok {
		return v, nil
	}
	return inventory.Vehicle{}, shared.ErrNotFound
}

func TestScanMatchesRegisteredVehicle(t *testing.T) {
	rec := &fakeRecognizer{text: "Engine No: ENG-123456\nChassis No: CHS-654321"}
	lookup := &fakeLookup{vehicles: map[string]inventory.Vehicle{
		"CHS-654321": {ID: 42, ChassisNumber: "CHS-654321"},
	}}
	svc := NewService(rec, lookup)

	result, err := svc.Scan(context.Background(), "doc.jpg", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	require.Equal(t, "ENG-123456", result.Extraction.EngineNumber)
	require.NotNil(t, result.Matched)
	require.Equal(t, int64(42), result.Matched.ID)
}

func TestScanReportsMissingSerials(t *testing.T) {
	rec := &fakeRecognizer{text: "nothing useful here"}
	svc := NewService(rec, nil)

	result, err := svc.Scan(context.Background(), "doc.jpg", strings.NewReader("image-bytes"))
	require.ErrorIs(t, err, ErrNoSerialsFound)
	require.Equal(t, "nothing useful here", result.Extraction.RawText)
}
