package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"shelfadmin/external/github"
	"shelfadmin/internal/catalog"
	"shelfadmin/internal/config"
	"shelfadmin/internal/database"
)

type storeCall struct {
	op   string
	path string
	sha  string
}

// mockStore scripts the remote content store per path.
type mockStore struct {
	mu    sync.Mutex
	calls []storeCall

	files     map[string]github.File
	getErr    map[string]error
	putErr    map[string]error
	deleteErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		files:  map[string]github.File{},
		getErr: map[string]error{},
		putErr: map[string]error{},
	}
}

func (m *mockStore) GetFile(ctx context.Context, path string, ref string) (github.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, storeCall{op: "get", path: path})
	if err := m.getErr[path]; err != nil {
		return github.File{}, err
	}
	return m.files[path], nil
}

func (m *mockStore) PutFile(ctx context.Context, path string, content []byte, message string, branch string, prevSha string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, storeCall{op: "put", path: path, sha: prevSha})
	if err := m.putErr[path]; err != nil {
		return "", err
	}
	return "sha-" + path, nil
}

func (m *mockStore) DeleteFile(ctx context.Context, path string, message string, branch string, sha string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, storeCall{op: "delete", path: path, sha: sha})
	return m.deleteErr
}

func (m *mockStore) callsFor(op string) []storeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storeCall
	for _, c := range m.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func testServer(t *testing.T, store *mockStore) *AdminServer {
	t.Helper()

	sqlite, err := database.DatabaseSetup(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("database.DatabaseSetup() %+v", err)
	}
	t.Cleanup(func() { sqlite.Db.Close() })

	cfg := config.Config{Branch: "main"}
	return NewAdminServer(&cfg, sqlite, store)
}

func existingCatalog(entries []catalog.Entry, sha string) github.File {
	raw, _ := catalog.Encode(entries)
	return github.File{Exists: true, Content: raw, Sha: sha}
}

func TestUploadBookHappyPath(t *testing.T) {
	store := newMockStore()
	store.files[catalog.Path] = existingCatalog([]catalog.Entry{
		{Title: "Existing", Author: "Someone", Pdf: "pdfs/existing.pdf"},
	}, "catalog-sha-1")
	server := testServer(t, store)

	result, err := server.UploadBook(context.Background(), UploadRequest{
		Title:  "The Great Book",
		Author: "",
		Pdf:    []byte("%PDF-1.4 data"),
	})
	if err != nil {
		t.Fatalf("server.UploadBook() %+v", err)
	}

	if result.PdfPath != "pdfs/the-great-book.pdf" {
		t.Errorf("wrong pdf path: %v", result.PdfPath)
	}
	if result.Entry.Author != "Unknown" {
		t.Errorf("blank author should default to Unknown, got %v", result.Entry.Author)
	}

	puts := store.callsFor("put")
	if len(puts) != 2 {
		t.Fatalf("expected pdf put then catalog put, got %+v", store.calls)
	}
	if puts[0].path != "pdfs/the-great-book.pdf" || puts[0].sha != "" {
		t.Errorf("pdf put must be an unmarked create: %+v", puts[0])
	}
	if puts[1].path != catalog.Path || puts[1].sha != "catalog-sha-1" {
		t.Errorf("catalog put must carry the fetched revision marker: %+v", puts[1])
	}
}

func TestUploadBookValidationMakesNoRemoteCalls(t *testing.T) {
	store := newMockStore()
	server := testServer(t, store)

	_, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "   ",
		Pdf:   []byte("%PDF"),
	})
	if !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected ErrMissingTitle, got %+v", err)
	}

	_, err = server.UploadBook(context.Background(), UploadRequest{Title: "A Book"})
	if !errors.Is(err, ErrMissingPdf) {
		t.Fatalf("expected ErrMissingPdf, got %+v", err)
	}

	if len(store.calls) != 0 {
		t.Errorf("validation failures must not touch the store: %+v", store.calls)
	}
}

func TestUploadBookCatalogFetchFailureStopsAndRollsBack(t *testing.T) {
	store := newMockStore()
	store.getErr[catalog.Path] = &github.APIError{Status: http.StatusBadGateway, Message: "upstream down"}
	server := testServer(t, store)

	_, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "The Great Book",
		Pdf:   []byte("%PDF"),
	})

	var partial *PartialCommitError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialCommitError, got %+v", err)
	}
	if !partial.Compensated {
		t.Errorf("successful rollback delete should mark the error compensated")
	}

	if puts := store.callsFor("put"); len(puts) != 1 {
		t.Errorf("no second put may happen after the fetch fails: %+v", store.calls)
	}
	if deletes := store.callsFor("delete"); len(deletes) != 1 || deletes[0].path != "pdfs/the-great-book.pdf" {
		t.Errorf("expected one rollback delete of the pdf: %+v", store.calls)
	}
}

func TestUploadBookStaleRevisionMarkerConflict(t *testing.T) {
	store := newMockStore()
	store.files[catalog.Path] = existingCatalog([]catalog.Entry{
		{Title: "First", Pdf: "pdfs/first.pdf"},
	}, "stale-sha")
	store.putErr[catalog.Path] = &github.APIError{Status: http.StatusConflict, Message: "books.json does not match"}
	store.deleteErr = &github.APIError{Status: http.StatusBadGateway, Message: "upstream down"}
	server := testServer(t, store)

	_, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "Second",
		Pdf:   []byte("%PDF"),
	})

	var partial *PartialCommitError
	if !errors.As(err, &partial) {
		t.Fatalf("stale marker must surface as PartialCommitError, got %+v", err)
	}
	var apiErr *github.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("store conflict must stay visible through the error chain, got %+v", err)
	}
	if partial.Compensated {
		t.Errorf("failed rollback delete cannot count as compensated")
	}

	// with the delete also failing the pdf must land in the orphan log
	orphans, dbErr := server.DB.GetUnresolvedOrphans()
	if dbErr != nil {
		t.Fatalf("GetUnresolvedOrphans() %+v", dbErr)
	}
	if len(orphans) != 1 || orphans[0].PdfPath != partial.PdfPath {
		t.Errorf("expected orphan record for %v, got %+v", partial.PdfPath, orphans)
	}
}

func TestUploadBookSlugCollisionGetsSuffix(t *testing.T) {
	store := newMockStore()
	store.files[catalog.Path] = existingCatalog(nil, "catalog-sha-1")
	store.files["pdfs/the-great-book.pdf"] = github.File{Exists: true, Sha: "taken"}
	server := testServer(t, store)

	first, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "The Great Book",
		Pdf:   []byte("%PDF one"),
	})
	if err != nil {
		t.Fatalf("first UploadBook() %+v", err)
	}
	if first.PdfPath != "pdfs/the-great-book.pdf" {
		t.Errorf("unseen slug must skip the probe entirely: %v", first.PdfPath)
	}

	second, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "The! Great? Book",
		Pdf:   []byte("%PDF two"),
	})
	if err != nil {
		t.Fatalf("second UploadBook() %+v", err)
	}
	if second.PdfPath != "pdfs/the-great-book-2.pdf" {
		t.Errorf("colliding slug should get a suffix, got %v", second.PdfPath)
	}
}

// Uploads arrive on separate goroutines, and all of them touch the
// shared slug filter. Run under -race this catches unguarded access.
func TestUploadBookConcurrentUploadsShareSlugFilter(t *testing.T) {
	store := newMockStore()
	store.files[catalog.Path] = existingCatalog(nil, "catalog-sha-1")
	server := testServer(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := server.UploadBook(context.Background(), UploadRequest{
				Title: fmt.Sprintf("Concurrent Book %d", i),
				Pdf:   []byte("%PDF"),
			})
			if err != nil {
				t.Errorf("concurrent UploadBook(%d) %+v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// a repeated title now hits the filter and goes through the
	// remote probe; the mock reports the path free, so it keeps the
	// base slug
	result, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "Concurrent Book 0",
		Pdf:   []byte("%PDF"),
	})
	if err != nil {
		t.Fatalf("server.UploadBook() %+v", err)
	}
	if result.PdfPath != "pdfs/concurrent-book-0.pdf" {
		t.Errorf("unexpected pdf path after probe: %v", result.PdfPath)
	}
	if probes := store.callsFor("get"); len(probes) < 10 {
		t.Errorf("expected a slug probe among the catalog fetches, got %d gets", len(probes))
	}
}

func TestUploadBookUnusableTitleFallsBackToTimestampName(t *testing.T) {
	store := newMockStore()
	store.files[catalog.Path] = existingCatalog(nil, "catalog-sha-1")
	server := testServer(t, store)

	result, err := server.UploadBook(context.Background(), UploadRequest{
		Title: "???",
		Pdf:   []byte("%PDF"),
	})
	if err != nil {
		t.Fatalf("server.UploadBook() %+v", err)
	}
	if !strings.HasPrefix(result.PdfPath, "pdfs/book-") {
		t.Errorf("expected timestamp fallback path, got %v", result.PdfPath)
	}
	if result.Entry.Title != "???" {
		t.Errorf("catalog entry keeps the original title, got %v", result.Entry.Title)
	}
}
