package ocr

import (
	"regexp"
	"strings"
)

// Confidence qualifies how a serial was found in the document text.
type Confidence string

const (
	// ConfidenceHigh means the serial followed an explicit label.
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow means the serial was inferred from its shape alone.
	ConfidenceLow Confidence = "low"
)

// Extraction holds the serials pulled out of recognized document text.
type Extraction struct {
	EngineNumber      string     `json:"engine_number,omitempty"`
	EngineConfidence  Confidence `json:"engine_confidence,omitempty"`
	ChassisNumber     string     `json:"chassis_number,omitempty"`
	ChassisConfidence Confidence `json:"chassis_confidence,omitempty"`
	RawText           string     `json:"raw_text"`
}

// Registration documents label the serials in a handful of ways; the value
// follows the label after optional punctuation. The VIN fallback catches
// bare 17-character VINs (which never use I, O, or Q) on unlabeled lines.
var (
	enginePattern  = regexp.MustCompile(`(?im)^\s*(?:engine|motor)(?:\s*(?:no|number|#))?\s*[:.\-]?\s*([A-Z0-9][A-Z0-9-]{4,38}[A-Z0-9])\s*$`)
	chassisPattern = regexp.MustCompile(`(?im)^\s*(?:chassis|frame|vin)(?:\s*(?:no|number|#))?\s*[:.\-]?\s*([A-Z0-9][A-Z0-9-]{4,38}[A-Z0-9])\s*$`)
	vinPattern     = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
)

// Parse scans recognized text for engine and chassis numbers. Missing
// serials stay empty; the caller decides whether a partial hit is usable.
func Parse(text string) Extraction {
	out := Extraction{RawText: text}
	normalized := strings.ToUpper(text)

	if m := enginePattern.FindStringSubmatch(normalized); m != nil {
		out.EngineNumber = m[1]
		out.EngineConfidence = ConfidenceHigh
	}
	if m := chassisPattern.FindStringSubmatch(normalized); m != nil {
		out.ChassisNumber = m[1]
		out.ChassisConfidence = ConfidenceHigh
	} else if m := vinPattern.FindString(normalized); m != "" {
		out.ChassisNumber = m
		out.ChassisConfidence = ConfidenceLow
	}
	return out
}
