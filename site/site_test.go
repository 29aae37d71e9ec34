package site

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/kbukum/folio/bootstrap"
	"github.com/kbukum/folio/config"
	"github.com/kbukum/folio/content"
	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/sse"
	"github.com/kbukum/folio/ws"
)

const secret = "s3cret"

// store answers content queries with canned results keyed by document type.
type store struct {
	mu      sync.Mutex
	results map[string]string
}

func newStore() *store {
	return &store{results: map[string]string{
		content.TypeProject: `[
			{"_id":"p2","title":"Second","slug":{"current":"second"},"category":"silent-mono","image":{"asset":{"_ref":"image-b"}},"orderRank":2},
			{"_id":"p1","title":"First","slug":{"current":"first"},"category":"fintech-commerce","image":{"asset":{"_ref":"image-a"}},"orderRank":1}
		]`,
		content.TypeVideo: `[
			{"_id":"v1","title":"Drift","platform":"runway","thumbnailImage":{"asset":{"_ref":"image-v1"}},"orderRank":1},
			{"_id":"v2","title":"Tide","platform":"sora","thumbnailImage":{"asset":{"_ref":"image-v2"}},"orderRank":0}
		]`,
		content.TypeImage: `[
			{"_id":"i1","title":"Bloom","platform":"midjourney","image":{"asset":{"_ref":"image-i1"}},"orderRank":0}
		]`,
	}}
}

func (s *store) set(docType, result string) {
	s.mu.Lock()
	s.results[docType] = result
	s.mu.Unlock()
}

func (s *store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	s.mu.Lock()
	result := "[]"
	for t, res := range s.results {
		if strings.Contains(query, `"`+t+`"`) {
			result = res
		}
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"ms":1,"query":"q","result":`+result+`}`)
}

func newTestConfig(storeURL string) *Config {
	return &Config{
		ServiceConfig: config.ServiceConfig{Name: "folio", Environment: "development", Version: "test"},
		Content: content.Config{
			BaseURL:         storeURL + "/v2024-01-01",
			WebhookSecret:   secret,
			WebhookDebounce: 20 * time.Millisecond,
		},
	}
}

func newTestApp(t *testing.T, cfg *Config) *bootstrap.App[*Config] {
	t.Helper()
	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.Cfg.Server.Host = "127.0.0.1"
	app.Cfg.Server.Port = 0
	return app
}

// startSite builds and starts a full site against a fake content store.
func startSite(t *testing.T) (*Site, *store, string) {
	t.Helper()
	st := newStore()
	upstream := httptest.NewServer(st)
	t.Cleanup(upstream.Close)

	app := newTestApp(t, newTestConfig(upstream.URL))
	s, err := New(app)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := app.Components.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	t.Cleanup(func() { app.Shutdown(ctx) })
	return s, st, "http://" + s.Server.Addr()
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

type streamEvent struct {
	typ  string
	data string
}

func nextEvent(t *testing.T, r *bufio.Reader) streamEvent {
	t.Helper()
	var ev streamEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.typ != "" || ev.data != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.typ = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data += strings.TrimPrefix(line, "data: ")
		}
	}
}

// waitEvent reads until an event of type typ arrives.
func waitEvent(t *testing.T, r *bufio.Reader, typ string, match func(string) bool) streamEvent {
	t.Helper()
	for {
		ev := nextEvent(t, r)
		if ev.typ == typ && (match == nil || match(ev.data)) {
			return ev
		}
	}
}

func openStream(t *testing.T, base string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+EventsPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return bufio.NewReader(resp.Body)
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Pointer.Interval != 16*time.Millisecond {
		t.Errorf("expected 16ms interval, got %v", cfg.Pointer.Interval)
	}
	if cfg.Pointer.KeepAlive != sse.DefaultKeepAlive || cfg.Pointer.WriteTimeout != ws.DefaultWriteTimeout {
		t.Errorf("unexpected transport defaults %+v", cfg.Pointer)
	}
	if cfg.Webhook.Rate != 1 || cfg.Webhook.Burst != 10 {
		t.Errorf("unexpected webhook limit %+v", cfg.Webhook)
	}
	if cfg.Server.Port != 8080 || cfg.Content.Dataset != "production" {
		t.Errorf("section defaults not applied: port=%d dataset=%q", cfg.Server.Port, cfg.Content.Dataset)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error without a content project id")
	}
	cfg.Content.ProjectID = "abc123"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
	cfg.Redis.Enabled = true
	cfg.Redis.DB = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected redis section to be validated")
	}
}

func TestSite_RegistersComponentsInOrder(t *testing.T) {
	app := newTestApp(t, newTestConfig("http://127.0.0.1:1"))
	if _, err := New(app); err != nil {
		t.Fatalf("New: %v", err)
	}

	var names []string
	for _, c := range app.Components.All() {
		names = append(names, c.Name())
	}
	want := "observability,content,pointer,sse,http-server"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNewContent_WithRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := newTestConfig("http://127.0.0.1:1")
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mini.Addr()
	app := newTestApp(t, cfg)

	svc, err := NewContent(app)
	if err != nil || svc == nil {
		t.Fatalf("NewContent: %v", err)
	}

	var names []string
	for _, c := range app.Components.All() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "observability,redis,content" {
		t.Errorf("unexpected components %s", got)
	}
}

func TestSite_ContentAPI(t *testing.T) {
	_, _, base := startSite(t)

	var projects envelope[[]content.Project]
	if code := getJSON(t, base+"/api/projects", &projects); code != http.StatusOK {
		t.Fatalf("projects: status %d", code)
	}
	if len(projects.Data) != 2 || projects.Data[0].ID != "p1" || projects.Data[1].ID != "p2" {
		t.Errorf("expected projects ordered by rank, got %+v", projects.Data)
	}

	var project envelope[content.Project]
	if code := getJSON(t, base+"/api/projects/second", &project); code != http.StatusOK || project.Data.ID != "p2" {
		t.Errorf("project by slug: status %d, got %+v", code, project.Data)
	}

	var missing errorBody
	if code := getJSON(t, base+"/api/projects/nope", &missing); code != http.StatusNotFound || missing.Error.Code != "NOT_FOUND" {
		t.Errorf("expected 404 NOT_FOUND, got %d %q", code, missing.Error.Code)
	}

	var videos envelope[[]content.Video]
	if code := getJSON(t, base+"/api/videos?platform=SORA", &videos); code != http.StatusOK {
		t.Fatalf("videos: status %d", code)
	}
	if len(videos.Data) != 1 || videos.Data[0].ID != "v2" {
		t.Errorf("expected only the sora video, got %+v", videos.Data)
	}

	var bad errorBody
	if code := getJSON(t, base+"/api/images?platform=vimeo", &bad); code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown platform, got %d", code)
	}

	var home envelope[content.Home]
	if code := getJSON(t, base+"/api/home", &home); code != http.StatusOK {
		t.Fatalf("home: status %d", code)
	}
	if len(home.Data.Projects) != 2 || len(home.Data.Videos) != 2 || len(home.Data.Images) != 1 {
		t.Errorf("unexpected home %+v", home.Data)
	}

	if code := getJSON(t, base+"/health", nil); code != http.StatusOK {
		t.Errorf("health: status %d", code)
	}
}

func TestSite_WebhookInvalidatesAndNotifiesViewers(t *testing.T) {
	s, st, base := startSite(t)

	var before envelope[[]content.Project]
	getJSON(t, base+"/api/projects", &before)
	if len(before.Data) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(before.Data))
	}

	stream := openStream(t, base)
	waitEvent(t, stream, sse.EventTypeConnected, nil)

	st.set(content.TypeProject, `[{"_id":"p9","title":"New","slug":{"current":"new"},"category":"void-architecture","image":{"asset":{"_ref":"image-n"}},"orderRank":0}]`)

	payload := []byte(`{"_id":"p9","_type":"portfolioProject"}`)
	resp, err := http.Post(base+"/api/webhooks/content", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without signature, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, base+"/api/webhooks/content", bytes.NewReader(payload))
	req.Header.Set(content.SignatureHeader, content.Sign(payload, secret, time.Now()))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	ev := waitEvent(t, stream, sse.EventTypeContentUpdated, nil)
	var updated sse.ContentUpdatedEvent
	if err := json.Unmarshal([]byte(ev.data), &updated); err != nil || updated.DocumentID != "p9" {
		t.Errorf("unexpected content.updated payload %q", ev.data)
	}

	var after envelope[[]content.Project]
	getJSON(t, base+"/api/projects", &after)
	if len(after.Data) != 1 || after.Data[0].ID != "p9" {
		t.Errorf("expected refetched projects after invalidation, got %+v", after.Data)
	}
	if accepted, invalidations := s.Webhook.Stats(); accepted != 1 || invalidations != 1 {
		t.Errorf("expected 1/1 webhook stats, got %d/%d", accepted, invalidations)
	}
}

func TestSite_PointerFromSocketReachesViewers(t *testing.T) {
	s, _, base := startSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := openStream(t, base)
	waitEvent(t, stream, sse.EventTypeConnected, nil)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(base, "http")+WebSocketPath, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var first ws.Frame
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := wsjson.Write(ctx, conn, map[string]float64{"x": 10, "y": 20}); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitEvent(t, stream, sse.EventTypePointer, func(data string) bool {
		var p sse.PointerEvent
		return json.Unmarshal([]byte(data), &p) == nil && p.X == 10 && p.Y == 20
	})

	var status envelope[PointerStatus]
	getJSON(t, base+"/api/pointer", &status)
	if status.Data.X != 10 || status.Data.Y != 20 || !status.Data.Attached || status.Data.Subscribers != 2 {
		t.Errorf("unexpected pointer status %+v", status.Data)
	}
	if s.WebSocket.Connections() != 1 {
		t.Errorf("expected 1 socket, got %d", s.WebSocket.Connections())
	}
}
