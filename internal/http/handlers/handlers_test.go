package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"pickleball-score-service/internal/app/match"
	"pickleball-score-service/internal/app/overlay"
	"pickleball-score-service/internal/domain"
	httpserver "pickleball-score-service/internal/http"
	"pickleball-score-service/internal/http/handlers"
	"pickleball-score-service/internal/notify"
	"pickleball-score-service/internal/store"
	"pickleball-score-service/internal/teststubs"
	"pickleball-score-service/internal/testutil"
)

type fixture struct {
	router http.Handler
	store  *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := store.NewMemoryStore()
	hub := notify.NewHub()
	matches := match.NewService(ms, hub, nil, nil, nil)
	overlays := overlay.NewService(ms, hub, nil)
	handler := handlers.NewHandler(matches, overlays, ms, nil, nil)
	return &fixture{router: httpserver.NewRouter(handler), store: ms}
}

func (f *fixture) createMatch(t *testing.T) domain.MatchState {
	t.Helper()
	body := `{"owner_id":"owner-1","team_a_name":"Ospreys","team_b_name":"Herons","best_of":3}`
	rr := testutil.Serve(f.router, http.MethodPost, "/matches", strings.NewReader(body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var m domain.MatchState
	testutil.DecodeJSON(t, rr, &m)
	return m
}

func (f *fixture) startMatch(t *testing.T, id string) {
	t.Helper()
	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+id+"/start", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)

	rr := testutil.Serve(f.router, http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(f.router, http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(f.router, http.MethodPost, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestReadyReportsStoreOutage(t *testing.T) {
	ms := store.NewMemoryStore()
	hub := notify.NewHub()
	matches := match.NewService(ms, hub, nil, nil, nil)
	overlays := overlay.NewService(ms, hub, nil)
	pinger := &teststubs.StubStore{PingErr: context.DeadlineExceeded}
	handler := handlers.NewHandler(matches, overlays, pinger, nil, nil)
	router := httpserver.NewRouter(handler)

	rr := testutil.Serve(router, http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestCreateMatch(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	if m.ID == "" || m.Status != domain.StatusNotStarted {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.Rules.FirstToPoints != 11 {
		t.Fatalf("expected default rules applied, got %+v", m.Rules)
	}

	rr := testutil.Serve(f.router, http.MethodPost, "/matches", strings.NewReader("{not json"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.Serve(f.router, http.MethodPost, "/matches", strings.NewReader(`{"owner_id":"o","best_of":2}`))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.Serve(f.router, http.MethodGet, "/matches", nil)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestGetMatch(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	rr := testutil.Serve(f.router, http.MethodGet, "/matches/"+m.ID, nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var got domain.MatchState
	testutil.DecodeJSON(t, rr, &got)
	if got.ID != m.ID {
		t.Fatalf("expected %s, got %s", m.ID, got.ID)
	}

	rr = testutil.Serve(f.router, http.MethodGet, "/matches/missing", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.Serve(f.router, http.MethodGet, "/matches/%20", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestRallyEndpoint(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	// Rallies require a started match.
	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/rally", strings.NewReader(`{"won":true}`))
	testutil.AssertStatus(t, rr, http.StatusConflict)

	f.startMatch(t, m.ID)

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/rally", strings.NewReader(`{"won":true}`))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var out struct {
		Game    domain.GameState `json:"Game"`
		SideOut bool             `json:"SideOut"`
	}
	testutil.DecodeJSON(t, rr, &out)
	if out.Game.TeamAScore != 1 {
		t.Fatalf("expected 1-0 after won rally, got %+v", out.Game)
	}

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/rally", strings.NewReader("oops"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestGamesEndpoints(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.startMatch(t, m.ID)

	for i := 0; i < 11; i++ {
		rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/rally", strings.NewReader(`{"won":true}`))
		testutil.AssertStatus(t, rr, http.StatusOK)
	}

	rr := testutil.Serve(f.router, http.MethodGet, "/matches/"+m.ID+"/games", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var games []domain.GameState
	testutil.DecodeJSON(t, rr, &games)
	if len(games) != 1 || !games[0].Completed {
		t.Fatalf("expected one completed game, got %+v", games)
	}

	// Advance, then truncate back down.
	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/game", strings.NewReader(`{"delta":1}`))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(f.router, http.MethodDelete, "/matches/"+m.ID+"/games?after=1", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(f.router, http.MethodDelete, "/matches/"+m.ID+"/games", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestChangeGameConflict(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.startMatch(t, m.ID)

	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/game", strings.NewReader(`{"delta":1}`))
	testutil.AssertStatus(t, rr, http.StatusConflict)

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/game", strings.NewReader(`{"delta":0}`))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestServerAndScoreEndpoints(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.startMatch(t, m.ID)

	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/server", strings.NewReader(`{"server":3}`))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var g domain.GameState
	testutil.DecodeJSON(t, rr, &g)
	if g.Server != 3 {
		t.Fatalf("expected server 3, got %d", g.Server)
	}

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/server", strings.NewReader(`{"server":9}`))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/score", strings.NewReader(`{"team":"TEAM_B","value":7}`))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.DecodeJSON(t, rr, &g)
	if g.TeamBScore != 7 {
		t.Fatalf("expected score override, got %+v", g)
	}

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/score", strings.NewReader(`{"team":"NONE","value":1}`))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestLifecycleEndpoints(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/start", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/start", nil)
	testutil.AssertStatus(t, rr, http.StatusConflict)

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/complete", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var got domain.MatchState
	testutil.DecodeJSON(t, rr, &got)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %+v", got)
	}

	rr = testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/complete", nil)
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestUnknownMatchRoute(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/unknown", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.Serve(f.router, http.MethodDelete, "/matches/"+m.ID, nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestOverlaySnapshotEndpoint(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.startMatch(t, m.ID)

	rr := testutil.Serve(f.router, http.MethodPost, "/matches/"+m.ID+"/overlay", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	token, err := f.store.OwnerToken(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("owner token: %v", err)
	}

	rr = testutil.Serve(f.router, http.MethodGet, "/overlay/"+token, nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var snap overlay.Snapshot
	testutil.DecodeJSON(t, rr, &snap)
	if snap.Match.ID != m.ID {
		t.Fatalf("expected active match in snapshot, got %+v", snap.Match)
	}

	rr = testutil.Serve(f.router, http.MethodGet, "/overlay/bogus-token", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.Serve(f.router, http.MethodPost, "/overlay/"+token, nil)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)

	rr = testutil.Serve(f.router, http.MethodGet, "/overlay/"+token+"/unknown", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
