// Package archive exports completed matches as JSON documents for recaps,
// with a manifest and rolling retention.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/timeutil"
)

// MatchArchive is the exported document for one completed match.
type MatchArchive struct {
	Match      domain.MatchState  `json:"match"`
	Games      []domain.GameState `json:"games"`
	TeamAGames int                `json:"team_a_games"`
	TeamBGames int                `json:"team_b_games"`
	ArchivedAt time.Time          `json:"archived_at"`
}

// Writer persists match archives and a manifest with pruning.
type Writer struct {
	basePath      string
	retentionDays int
	now           func() time.Time
}

// NewWriter constructs a writer rooted at basePath with a rolling window retention.
func NewWriter(basePath string, retentionDays int) *Writer {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Writer{
		basePath:      basePath,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// BasePath exposes the writer root path (primarily for testing).
func (w *Writer) BasePath() string {
	if w == nil {
		return ""
	}
	return w.basePath
}

// MatchPath returns the archive file path for a match ID.
func (w *Writer) MatchPath(matchID string) string {
	return filepath.Join(w.basePath, "matches", matchID+".json")
}

// WriteMatch exports the match and its games, then prunes archives older
// than the retention window. The write is atomic (tmp file + rename) and
// skipped when the payload is unchanged.
func (w *Writer) WriteMatch(match domain.MatchState, games []domain.GameState) error {
	if w == nil {
		return fmt.Errorf("archive writer not configured")
	}
	if match.ID == "" {
		return fmt.Errorf("match id required")
	}

	teamA, teamB := domain.GamesWon(games)
	doc := MatchArchive{
		Match:      match,
		Games:      games,
		TeamAGames: teamA,
		TeamBGames: teamB,
		ArchivedAt: w.now().UTC(),
	}

	target := w.MatchPath(match.ID)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
		return w.updateManifest(match.ID)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		return err
	}

	return w.updateManifest(match.ID)
}

// LoadMatch reads an archived match back, primarily for the recap endpoint
// and tests.
func (w *Writer) LoadMatch(matchID string) (MatchArchive, error) {
	var doc MatchArchive
	f, err := os.Open(w.MatchPath(matchID))
	if err != nil {
		return MatchArchive{}, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return MatchArchive{}, err
	}
	return doc, nil
}

func (w *Writer) updateManifest(matchID string) error {
	m, _ := readManifest(w.manifestPath())
	now := w.now().UTC()

	entry := ManifestEntry{MatchID: matchID, ArchivedAt: now, Date: timeutil.FormatDate(now)}
	replaced := false
	for i := range m.Matches {
		if m.Matches[i].MatchID == matchID {
			m.Matches[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		m.Matches = append(m.Matches, entry)
	}

	m.Matches = w.prune(m.Matches, now)
	m.LastArchived = now
	m.RetentionDays = w.retentionDays

	return writeManifest(w.manifestPath(), m)
}

func (w *Writer) prune(entries []ManifestEntry, now time.Time) []ManifestEntry {
	cutoff := now.AddDate(0, 0, -w.retentionDays)
	kept := entries[:0]
	for _, e := range entries {
		if e.ArchivedAt.Before(cutoff) {
			// Best effort removal; a missing file is already pruned.
			_ = os.Remove(w.MatchPath(e.MatchID))
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (w *Writer) manifestPath() string {
	return filepath.Join(w.basePath, "manifest.json")
}
