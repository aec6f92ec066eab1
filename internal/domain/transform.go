package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Output headers attached to serialized assessments.
const (
	HeaderRiskLevel   = "risk_level"
	HeaderOutlook     = "outlook"
	HeaderProcessedAt = "processed_at"
)

var errMissingDiseaseClass = errors.New("missing disease_class")

// ParseRawEvent deserializes a RawEvent's value into a Detection. Missing
// detection times fall back to the message timestamp and missing IDs are
// derived from the detection's content.
func ParseRawEvent(raw RawEvent) (Detection, error) {
	var det Detection
	if err := json.Unmarshal(raw.Value, &det); err != nil {
		return Detection{}, fmt.Errorf("parse raw event: %w", err)
	}
	det.DiseaseClass = strings.TrimSpace(det.DiseaseClass)
	det.City = strings.TrimSpace(det.City)
	if det.DiseaseClass == "" {
		return Detection{}, fmt.Errorf("parse raw event: %w", errMissingDiseaseClass)
	}
	if det.DetectedAt.IsZero() {
		det.DetectedAt = raw.Timestamp
	}
	det.DetectedAt = det.DetectedAt.UTC()
	if det.ID == "" {
		det.ID = DetectionID(det)
	}
	return det, nil
}

// DetectionID derives a stable ID from the class, city and detection time.
func DetectionID(det Detection) string {
	return generateID("det", det.DiseaseClass, strings.ToLower(det.City), det.DetectedAt.UTC().Format(time.RFC3339Nano))
}

// assessmentID keys an assessment by the detection it answers and the city
// whose weather was used.
func assessmentID(detectionID, city string) string {
	return generateID("risk", detectionID, strings.ToLower(city))
}

// generateID hashes the pipe-joined parts and prefixes the first 8 bytes of
// the digest, e.g. "risk-3f2a9c0d1b4e5f60".
func generateID(prefix string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	short := hex.EncodeToString(hash[:8])
	if prefix == "" {
		return short
	}
	return prefix + "-" + short
}

// SerializeAssessment marshals an assessment into its sink representation.
func SerializeAssessment(a Assessment) (OutputEvent, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment: %w", err)
	}
	headers := map[string]string{
		HeaderProcessedAt: a.ProcessedAt.Format(time.RFC3339),
	}
	if a.Risk != nil {
		headers[HeaderRiskLevel] = string(a.Risk.Level)
	}
	if a.Survival != nil {
		headers[HeaderOutlook] = string(a.Survival.Outlook)
	}
	return OutputEvent{
		Key:     []byte(a.ID),
		Value:   data,
		Headers: headers,
	}, nil
}
