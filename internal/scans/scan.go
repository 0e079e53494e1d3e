// Package scans implements the rack photo scan domain. A scan stores the
// uploaded photo in blob storage, runs it through the pipeline controller,
// and persists the Ready result alongside summary counts.
package scans

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rackscan/internal/pipeline"
)

// StoragePrefix namespaces scan photos in blob storage.
const StoragePrefix = "scans/"

// Scan is a persisted analysis of one rack photo.
type Scan struct {
	ID            uuid.UUID       `json:"id"`
	Filename      string          `json:"filename"`
	ContentType   string          `json:"content_type"`
	SizeBytes     int64           `json:"size_bytes"`
	StorageKey    string          `json:"storage_key"`
	Mode          pipeline.Mode   `json:"mode"`
	LocationCount int             `json:"location_count"`
	ItemCount     int             `json:"item_count"`
	MatchedCount  int             `json:"matched_count"`
	CaseCount     int             `json:"case_count"`
	Result        pipeline.Result `json:"result"`
	ScannedAt     time.Time       `json:"scanned_at"`
}

// AnalyzeCommand carries an uploaded photo.
type AnalyzeCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ModeCommand selects the controller mode.
type ModeCommand struct {
	Mode pipeline.Mode `json:"mode"`
}
