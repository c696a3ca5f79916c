package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"campus/companion/internal/db"
	"campus/companion/internal/handler"
	"campus/companion/internal/logging"
	"campus/companion/internal/notify"
	"campus/companion/internal/repository"
	"campus/companion/internal/router"
	"campus/companion/internal/service"
	"campus/companion/internal/timer"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type stateEnvelope struct {
	State struct {
		Mode                string `json:"mode"`
		Status              string `json:"status"`
		RemainingSeconds    int    `json:"remainingSeconds"`
		CompletedFocusCount int    `json:"completedFocusCount"`
		Version             int    `json:"version"`
	} `json:"state"`
}

type historyEnvelope struct {
	Sessions []struct {
		Mode     string `json:"mode"`
		NextMode string `json:"nextMode"`
	} `json:"sessions"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Field string `json:"field"`
			State struct {
				Version int `json:"version"`
			} `json:"state"`
		} `json:"details"`
	} `json:"error"`
}

type testApp struct {
	handler http.Handler
	timers  *service.TimerService
	hub     *notify.Hub
}

func init() {
	gin.SetMode(gin.TestMode)
	quiet := logging.NewLogger(logging.LevelError)
	quiet.SetOutput(io.Discard)
	logging.SetGlobal(quiet)
}

func TestTimerSyncAndConflict(t *testing.T) {
	app := setupSQLiteApp(t)

	user1 := registerUser(t, app.handler, "user1@example.com", "123456")
	user2 := registerUser(t, app.handler, "user2@example.com", "123456")

	state1 := getState(t, app.handler, user1.Token)
	if state1.State.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", state1.State.Version)
	}
	if state1.State.RemainingSeconds != 1500 {
		t.Fatalf("expected 1500 seconds, got %d", state1.State.RemainingSeconds)
	}

	status, _ := requestJSON(t, app.handler, http.MethodPost, "/api/timer/start", user1.Token, map[string]int{
		"baseVersion": state1.State.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	// A second device still holding version 1 must not pause.
	status, rawConflict := requestJSON(t, app.handler, http.MethodPost, "/api/timer/pause", user1.Token, map[string]int{
		"baseVersion": state1.State.Version,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for stale version, got %d", status)
	}

	var conflictResp apiErrorEnvelope
	if err := json.Unmarshal(rawConflict, &conflictResp); err != nil {
		t.Fatalf("unmarshal conflict response: %v", err)
	}
	if conflictResp.Error.Code != "state_conflict" {
		t.Fatalf("expected state_conflict, got %s", conflictResp.Error.Code)
	}

	latestVersion := conflictResp.Error.Details.State.Version
	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/timer/reset", user1.Token, map[string]int{
		"baseVersion": latestVersion,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", status)
	}

	state2 := getState(t, app.handler, user2.Token)
	if state2.State.Status != "idle" || state2.State.Version != 1 {
		t.Fatalf("user2 state leaked: %+v", state2.State)
	}
}

func TestCompletedFocusIsRecorded(t *testing.T) {
	app := setupSQLiteApp(t)
	user := registerUser(t, app.handler, "focus@example.com", "123456")

	status, body := requestJSON(t, app.handler, http.MethodPut, "/api/timer/settings", user.Token, map[string]int{
		"baseVersion":       1,
		"focusMinutes":      1,
		"shortBreakMinutes": 1,
		"longBreakMinutes":  3,
		"longBreakInterval": 4,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on settings, got %d: %s", status, body)
	}

	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/timer/start", user.Token, map[string]int{"baseVersion": 2})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	for i := 0; i < 59; i++ {
		app.timers.TickAll()
	}
	state := getState(t, app.handler, user.Token)
	if state.State.Mode != "focus" || state.State.RemainingSeconds != 1 {
		t.Fatalf("expected one focus second left, got %+v", state.State)
	}

	app.timers.TickAll()
	app.timers.WaitRecorded()
	state = getState(t, app.handler, user.Token)
	if state.State.Mode != "short_break" || state.State.CompletedFocusCount != 1 {
		t.Fatalf("expected short break after one focus, got %+v", state.State)
	}
	if state.State.RemainingSeconds != 60 || state.State.Status != "running" {
		t.Fatalf("unexpected break state: %+v", state.State)
	}

	status, raw := requestJSON(t, app.handler, http.MethodGet, "/api/timer/history?limit=10", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for history, got %d", status)
	}
	var history historyEnvelope
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Sessions) != 1 || history.Sessions[0].Mode != "focus" || history.Sessions[0].NextMode != "short_break" {
		t.Fatalf("unexpected history: %+v", history.Sessions)
	}

	for _, path := range []string{"/api/timer/history", "/api/timer/history?limit=abc"} {
		status, raw = requestJSON(t, app.handler, http.MethodGet, path, user.Token, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, status)
		}
		var defaulted historyEnvelope
		if err := json.Unmarshal(raw, &defaulted); err != nil {
			t.Fatalf("unmarshal history: %v", err)
		}
		if len(defaulted.Sessions) != 1 {
			t.Fatalf("expected default limit to return the session for %s, got %+v", path, defaulted.Sessions)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/timer/history/report.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	recorder := httptest.NewRecorder()
	app.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for report, got %d", recorder.Code)
	}
	if recorder.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected report content type %q", recorder.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(recorder.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("report is not a pdf")
	}
}

func TestInvalidRequests(t *testing.T) {
	app := setupMemoryApp(t)
	user := registerUser(t, app.handler, "memory@example.com", "123456")

	status, raw := requestJSON(t, app.handler, http.MethodPut, "/api/timer/settings", user.Token, map[string]int{
		"baseVersion":       1,
		"focusMinutes":      0,
		"shortBreakMinutes": 5,
		"longBreakMinutes":  15,
		"longBreakInterval": 4,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero focus, got %d", status)
	}
	var errResp apiErrorEnvelope
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errResp.Error.Code != "invalid_settings" || errResp.Error.Details.Field != "focusMinutes" {
		t.Fatalf("unexpected error: %+v", errResp.Error)
	}

	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/timer/mode", user.Token, map[string]interface{}{
		"baseVersion": 1,
		"mode":        "nap",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", status)
	}

	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/timer/start", user.Token, map[string]int{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 without baseVersion, got %d", status)
	}

	status, _ = requestJSON(t, app.handler, http.MethodGet, "/api/timer/state", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "MEMORY@example.com ",
		"password": "abcdef",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", status)
	}
}

func TestSkipAndLogin(t *testing.T) {
	app := setupMemoryApp(t)
	registerUser(t, app.handler, "skip@example.com", "123456")

	status, raw := requestJSON(t, app.handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "skip@example.com",
		"password": "123456",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", status)
	}
	var login authResponse
	if err := json.Unmarshal(raw, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}

	status, raw = requestJSON(t, app.handler, http.MethodPost, "/api/timer/skip", login.Token, map[string]int{"baseVersion": 1})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on skip, got %d", status)
	}
	var skipped stateEnvelope
	if err := json.Unmarshal(raw, &skipped); err != nil {
		t.Fatalf("unmarshal skip: %v", err)
	}
	if skipped.State.Mode != "short_break" || skipped.State.CompletedFocusCount != 0 {
		t.Fatalf("unexpected state after skip: %+v", skipped.State)
	}

	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "skip@example.com",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 on bad password, got %d", status)
	}
}

func TestEventsStreamModeCompletions(t *testing.T) {
	app := setupMemoryApp(t)
	user := registerUser(t, app.handler, "stream@example.com", "123456")

	status, body := requestJSON(t, app.handler, http.MethodPut, "/api/timer/settings", user.Token, map[string]int{
		"baseVersion":       1,
		"focusMinutes":      1,
		"shortBreakMinutes": 1,
		"longBreakMinutes":  2,
		"longBreakInterval": 4,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on settings, got %d: %s", status, body)
	}
	status, _ = requestJSON(t, app.handler, http.MethodPost, "/api/timer/start", user.Token, map[string]int{"baseVersion": 2})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	server := httptest.NewServer(app.handler)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/timer/events?access_token="+user.Token, nil)
	if err != nil {
		t.Fatalf("build events request: %v", err)
	}

	// headers are only flushed with the first event, so Do blocks until then
	responses := make(chan *http.Response, 1)
	errs := make(chan error, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			errs <- err
			return
		}
		responses <- resp
	}()

	waitForSubscribers(t, app.hub, user.User.ID, 1)
	for i := 0; i < 60; i++ {
		app.timers.TickAll()
	}
	app.timers.WaitRecorded()

	var resp *http.Response
	select {
	case resp = <-responses:
	case err := <-errs:
		t.Fatalf("events request failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no event was streamed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for events, got %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			eventLine = line
		}
		if strings.HasPrefix(line, "data:") {
			dataLine = line
			break
		}
	}
	if eventLine != "event:mode_completed" {
		t.Fatalf("unexpected event line %q", eventLine)
	}
	if !strings.Contains(dataLine, "Focus session completed!") || !strings.Contains(dataLine, "short_break") {
		t.Fatalf("unexpected event data %q", dataLine)
	}

	cancel()
	waitForSubscribers(t, app.hub, user.User.ID, 0)
}

func TestEventsRequireToken(t *testing.T) {
	app := setupMemoryApp(t)

	for _, path := range []string{"/api/timer/events", "/api/timer/events?access_token=not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		recorder := httptest.NewRecorder()
		app.handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, recorder.Code)
		}
	}
}

func waitForSubscribers(t *testing.T, hub *notify.Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", want, hub.Subscribers(userID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCORSPreflight(t *testing.T) {
	app := setupMemoryApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	app.handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupSQLiteApp(t *testing.T) testApp {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return buildApp(repository.NewUserRepository(database), repository.NewTimerRepository(database))
}

func setupMemoryApp(t *testing.T) testApp {
	t.Helper()
	store := repository.NewMemoryStore()
	return buildApp(store, store)
}

func buildApp(users repository.UserStore, timers repository.TimerStore) testApp {
	hub := notify.NewHub()
	authService := service.NewAuthService(users, timers, timer.DefaultConfig(), "test-secret", 24*time.Hour)
	timerService := service.NewTimerService(timers, hub, timer.DefaultConfig(), logging.L())

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(timerService, authService, hub)

	engine := router.New(authService, authHandler, timerHandler, []string{"http://localhost:5173"})
	return testApp{handler: engine, timers: timerService, hub: hub}
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func getState(t *testing.T, server http.Handler, token string) stateEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/timer/state", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get state failed with status %d: %s", status, string(body))
	}
	var stateResp stateEnvelope
	if err := json.Unmarshal(body, &stateResp); err != nil {
		t.Fatalf("unmarshal state response: %v", err)
	}
	return stateResp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
