package fhirsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/pkg/pagination"
)

func taskPage(next string, modified ...string) string {
	var entries []string
	for i, m := range modified {
		entries = append(entries, fmt.Sprintf(
			`{"fullUrl":"https://erp.example/Task/t%d","resource":{"resourceType":"Task","id":"t%d","status":"ready","lastModified":%q}}`,
			i, i, m))
	}
	link := ""
	if next != "" {
		link = fmt.Sprintf(`"link":[{"relation":"next","url":%q}],`, next)
	}
	return fmt.Sprintf(`{"resourceType":"Bundle","type":"searchset",%s"entry":[%s]}`, link, strings.Join(entries, ","))
}

type taskServer struct {
	mu      sync.Mutex
	queries []string
	failOn  string
}

func (s *taskServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.RawQuery)
		s.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.failOn != "" && r.URL.Query().Get("page") == s.failOn {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/fhir+json")
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, taskPage("/Task?page=2", "2025-03-01T10:00:00Z", "2025-03-02T10:00:00Z"))
		case "2":
			fmt.Fprint(w, taskPage("", "2025-03-05T08:30:00Z"))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestDownloader(url string, store WatermarkStore) *Downloader {
	fetcher := NewHTTPFetcher(url, "secret", 5*time.Second)
	return NewDownloader(fetcher.For, store, 2, zerolog.Nop())
}

func TestDownloader_FollowsPagesAndAdvancesWatermark(t *testing.T) {
	srv := &taskServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	store := NewMemoryWatermarkStore()
	var pages []*fhir.Bundle
	sink := func(_ context.Context, kind Kind, b *fhir.Bundle) error {
		if kind != KindTask {
			t.Errorf("kind = %q", kind)
		}
		pages = append(pages, b)
		return nil
	}

	res, err := newTestDownloader(ts.URL, store).Run(context.Background(), "X110411675", KindTask, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Pages != 2 || res.Resources != 3 || len(pages) != 2 {
		t.Fatalf("pages=%d resources=%d sunk=%d", res.Pages, res.Resources, len(pages))
	}
	want := time.Date(2025, 3, 5, 8, 30, 0, 0, time.UTC)
	if res.Watermark == nil || !res.Watermark.Equal(want) {
		t.Errorf("watermark = %v, want %v", res.Watermark, want)
	}
	got, _ := store.Get(context.Background(), "X110411675", KindTask)
	if got == nil || !got.Equal(want) {
		t.Errorf("stored watermark = %v", got)
	}
	if !strings.Contains(srv.queries[0], "_count=2") || strings.Contains(srv.queries[0], "modified=") {
		t.Errorf("first query = %q", srv.queries[0])
	}
}

func TestDownloader_SendsWatermarkAsSince(t *testing.T) {
	srv := &taskServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	store := NewMemoryWatermarkStore()
	_ = store.Set(context.Background(), "X110411675", KindTask, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	if _, err := newTestDownloader(ts.URL, store).Run(context.Background(), "X110411675", KindTask, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(srv.queries[0], "modified=ge2025-02-01T00%3A00%3A00Z") {
		t.Errorf("first query = %q", srv.queries[0])
	}
}

func TestDownloader_FailureKeepsWatermark(t *testing.T) {
	srv := &taskServer{failOn: "2"}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	store := NewMemoryWatermarkStore()
	var sunk int
	sink := func(context.Context, Kind, *fhir.Bundle) error { sunk++; return nil }

	res, err := newTestDownloader(ts.URL, store).Run(context.Background(), "X110411675", KindTask, sink)
	if !errors.Is(err, pagination.ErrPaginationAborted) {
		t.Fatalf("expected ErrPaginationAborted, got %v", err)
	}
	if sunk != 1 || res.Pages != 1 {
		t.Errorf("sunk=%d pages=%d, want first page delivered", sunk, res.Pages)
	}
	if got, _ := store.Get(context.Background(), "X110411675", KindTask); got != nil {
		t.Errorf("watermark advanced to %v after failed run", got)
	}
}

func TestDownloader_SinkErrorAborts(t *testing.T) {
	srv := &taskServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	boom := errors.New("disk full")
	sink := func(context.Context, Kind, *fhir.Bundle) error { return boom }
	_, err := newTestDownloader(ts.URL, NewMemoryWatermarkStore()).Run(context.Background(), "p", KindTask, sink)
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(srv.queries) != 1 {
		t.Errorf("expected 1 request, got %d", len(srv.queries))
	}
}

func TestDownloader_UnknownKind(t *testing.T) {
	d := NewDownloader(func(Kind) FetchFunc { return nil }, NewMemoryWatermarkStore(), 10, zerolog.Nop())
	if _, err := d.Run(context.Background(), "p", Kind("Patient"), nil); !errors.Is(err, ErrUnknownResourceKind) {
		t.Fatalf("expected ErrUnknownResourceKind, got %v", err)
	}
}

func TestDownloader_ConcurrentRunsShareOneDownload(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, since *time.Time, pageSize int, next string) ([]byte, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return []byte(taskPage("", "2025-03-01T10:00:00Z")), nil
	}
	d := NewDownloader(func(Kind) FetchFunc { return fetch }, NewMemoryWatermarkStore(), 10, zerolog.Nop())

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)
	run := func(i int) {
		defer wg.Done()
		results[i], errs[i] = d.Run(context.Background(), "p", KindTask, nil)
	}

	wg.Add(2)
	go run(0)
	<-started
	go run(1)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	for i := range results {
		if errs[i] != nil || results[i].Resources != 1 {
			t.Errorf("run %d: res=%+v err=%v", i, results[i], errs[i])
		}
	}
}

func TestHTTPFetcher_AbsoluteNextLinkUsedVerbatim(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		fmt.Fprint(w, `{"resourceType":"Bundle","type":"searchset"}`)
	}))
	defer ts.Close()

	f := NewHTTPFetcher("https://unused.example/fhir/", "", time.Second)
	if _, err := f.For(KindAuditEvent)(context.Background(), nil, 10, ts.URL+"/AuditEvent?__page=3"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/AuditEvent?__page=3" {
		t.Errorf("path = %q", gotPath)
	}
}
