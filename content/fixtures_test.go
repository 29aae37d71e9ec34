package content

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/folio/cache"
	"github.com/kbukum/folio/logger"
)

const projectsJSON = `[
  {"_id":"p2","_type":"portfolioProject","title":"Second","slug":{"current":"second"},"category":"quantum-design","image":{"_type":"image","asset":{"_ref":"image-b","_type":"reference"}},"description":null,"details":null,"orderRank":2},
  {"_id":"p1","_type":"portfolioProject","title":"First","slug":{"current":"first"},"category":"fintech-commerce","image":{"_type":"image","asset":{"_ref":"image-a","_type":"reference"}},"description":"Payments","details":[{"_type":"block","children":[]}],"orderRank":1},
  {"_id":"bad-category","_type":"portfolioProject","title":"Nope","slug":{"current":"nope"},"category":"unknown","image":{"asset":{"_ref":"image-c"}},"orderRank":0},
  {"_id":"no-slug","_type":"portfolioProject","title":"No slug","slug":null,"category":"silent-mono","image":{"asset":{"_ref":"image-d"}},"orderRank":0},
  {"_id":"p3","_type":"portfolioProject","title":"Tied","slug":{"current":"tied"},"category":"silent-mono","image":{"asset":{"_ref":"image-e"}},"orderRank":2}
]`

const videosJSON = `[
  {"_id":"v1","_type":"aiFilmLabVideo","title":"Drift","platform":"runway","videoFile":"https://cdn.example.com/drift.mp4","videoUrl":null,"thumbnailImage":{"asset":{"_ref":"image-v1"}},"orderRank":1},
  {"_id":"v2","_type":"aiFilmLabVideo","title":"Tide","platform":"sora","thumbnailImage":{"asset":{"_ref":"image-v2"}},"orderRank":0},
  {"_id":"v3","_type":"aiFilmLabVideo","title":"No thumb","platform":"veo","thumbnailImage":null,"orderRank":3}
]`

const imagesJSON = `[
  {"_id":"i1","_type":"visualGenerationImage","title":"Bloom","platform":"midjourney","image":{"asset":{"_ref":"image-i1"}},"is3D":false,"prompt":"a bloom","orderRank":1},
  {"_id":"i2","_type":"visualGenerationImage","title":"Mesh","platform":"meshy","image":{"asset":{"_ref":"image-i2"}},"is3D":true,"orderRank":0},
  {"_id":"i3","_type":"visualGenerationImage","title":"Banana","platform":"nano-banana","image":{"asset":{"_ref":"image-i3"}},"is3D":null,"orderRank":2}
]`

// fakeStore serves canned query results keyed by document type.
type fakeStore struct {
	mu      sync.Mutex
	results map[string]string
	status  map[string]int
	delay   time.Duration
	calls   atomic.Int32
	auth    string
	path    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		results: map[string]string{
			TypeProject: projectsJSON,
			TypeVideo:   videosJSON,
			TypeImage:   imagesJSON,
		},
		status: map[string]int{},
	}
}

func (f *fakeStore) set(docType, result string) {
	f.mu.Lock()
	f.results[docType] = result
	f.mu.Unlock()
}

func (f *fakeStore) fail(docType string, status int) {
	f.mu.Lock()
	f.status[docType] = status
	f.mu.Unlock()
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	query := r.URL.Query().Get("query")

	f.mu.Lock()
	f.auth = r.Header.Get("Authorization")
	f.path = r.URL.Path
	var docType, result string
	for t, res := range f.results {
		if strings.Contains(query, `"`+t+`"`) {
			docType, result = t, res
		}
	}
	status := f.status[docType]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ms":3,"query":"q","result":` + result + `}`))
}

func newTestService(t *testing.T, store *fakeStore, opts ...ServiceOption) (*Service, *Client) {
	t.Helper()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/v2024-01-01", Token: "tok"}, WithRetry(nil))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	mem, err := cache.NewMemory(1 << 20)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(mem.Close)

	base := []ServiceOption{WithLogger(logger.Nop())}
	return NewService(client, mem, append(base, opts...)...), client
}
