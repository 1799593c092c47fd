package archive

import (
	"os"
	"testing"
	"time"

	"pickleball-score-service/internal/domain"
)

func completedMatch(id string) (domain.MatchState, []domain.GameState) {
	m := domain.MatchState{
		ID:        id,
		OwnerID:   "owner-1",
		TeamAName: "Ospreys",
		TeamBName: "Herons",
		BestOf:    3,
		Rules:     domain.DefaultRules(),
		Status:    domain.StatusCompleted,
		Seq:       10,
	}
	games := []domain.GameState{
		{ID: id + "-g1", MatchID: id, GameNumber: 1, Completed: true, Winner: domain.TeamA},
		{ID: id + "-g2", MatchID: id, GameNumber: 2, Completed: true, Winner: domain.TeamA},
	}
	return m, games
}

func TestWriteAndLoadMatch(t *testing.T) {
	w := NewWriter(t.TempDir(), 30)
	m, games := completedMatch("m1")

	if err := w.WriteMatch(m, games); err != nil {
		t.Fatalf("write match: %v", err)
	}

	doc, err := w.LoadMatch("m1")
	if err != nil {
		t.Fatalf("load match: %v", err)
	}
	if doc.Match.ID != "m1" || len(doc.Games) != 2 {
		t.Fatalf("unexpected archive %+v", doc)
	}
	if doc.TeamAGames != 2 || doc.TeamBGames != 0 {
		t.Fatalf("expected 2-0 games tally, got %d-%d", doc.TeamAGames, doc.TeamBGames)
	}
	if doc.ArchivedAt.IsZero() {
		t.Fatalf("expected archived timestamp")
	}

	manifest, err := readManifest(w.manifestPath())
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(manifest.Matches) != 1 || manifest.Matches[0].MatchID != "m1" {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if manifest.RetentionDays != 30 {
		t.Fatalf("expected retention recorded, got %d", manifest.RetentionDays)
	}
}

func TestWriteMatchSkipsUnchangedPayload(t *testing.T) {
	w := NewWriter(t.TempDir(), 30)
	w.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	m, games := completedMatch("m1")

	if err := w.WriteMatch(m, games); err != nil {
		t.Fatalf("first write: %v", err)
	}
	before, err := os.Stat(w.MatchPath("m1"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if err := w.WriteMatch(m, games); err != nil {
		t.Fatalf("second write: %v", err)
	}
	after, err := os.Stat(w.MatchPath("m1"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatalf("identical payload should not rewrite the file")
	}
}

func TestWriteMatchValidation(t *testing.T) {
	w := NewWriter(t.TempDir(), 30)
	if err := w.WriteMatch(domain.MatchState{}, nil); err == nil {
		t.Fatalf("expected error for missing match id")
	}

	var nilWriter *Writer
	if err := nilWriter.WriteMatch(domain.MatchState{ID: "m1"}, nil); err == nil {
		t.Fatalf("expected error from unconfigured writer")
	}
	if nilWriter.BasePath() != "" {
		t.Fatalf("nil writer base path should be empty")
	}
}

func TestRetentionPrunesOldArchives(t *testing.T) {
	w := NewWriter(t.TempDir(), 7)

	// Archive one match far in the past, another now.
	w.now = func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) }
	old, oldGames := completedMatch("old")
	if err := w.WriteMatch(old, oldGames); err != nil {
		t.Fatalf("write old: %v", err)
	}

	w.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	fresh, freshGames := completedMatch("fresh")
	if err := w.WriteMatch(fresh, freshGames); err != nil {
		t.Fatalf("write fresh: %v", err)
	}

	manifest, err := readManifest(w.manifestPath())
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(manifest.Matches) != 1 || manifest.Matches[0].MatchID != "fresh" {
		t.Fatalf("expected old entry pruned, got %+v", manifest.Matches)
	}
	if _, err := os.Stat(w.MatchPath("old")); !os.IsNotExist(err) {
		t.Fatalf("expected old archive file removed, got %v", err)
	}
}

func TestNewWriterDefaultRetention(t *testing.T) {
	w := NewWriter(t.TempDir(), 0)
	if w.retentionDays != 90 {
		t.Fatalf("expected default retention 90, got %d", w.retentionDays)
	}
}
