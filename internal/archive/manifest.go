package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Manifest indexes the archived matches on disk.
type Manifest struct {
	Matches       []ManifestEntry `json:"matches"`
	LastArchived  time.Time       `json:"last_archived"`
	RetentionDays int             `json:"retention_days"`
}

// ManifestEntry records one archived match.
type ManifestEntry struct {
	MatchID    string    `json:"match_id"`
	Date       string    `json:"date"`
	ArchivedAt time.Time `json:"archived_at"`
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func writeManifest(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
