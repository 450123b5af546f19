package store

import (
	"testing"

	"github.com/nntpidx/nzbidx/internal/overview"
)

func i64(v int64) *int64   { return &v }
func u32(v uint32) *uint32 { return &v }

func TestUpsertBatchIsIdempotent(t *testing.T) {
	mgr := NewManager(t.TempDir())
	gs, err := mgr.Open("alt.binaries.test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	rows := []overview.Row{
		{ArticleNum: 1, MessageID: "<a@x>", Subject: "hello (1/2)", Poster: "a@x.com", DateUnix: i64(1000), BytesLen: u32(100), LineCount: u32(10)},
		{ArticleNum: 2, MessageID: "<b@x>", Subject: "hello (2/2)", Poster: "a@x.com", DateUnix: i64(1001), BytesLen: u32(200), LineCount: u32(20)},
	}
	if err := gs.UpsertBatch(rows); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
	// Re-inserting the same rows must not duplicate or error.
	if err := gs.UpsertBatch(rows); err != nil {
		t.Fatalf("UpsertBatch (repeat): %v", err)
	}

	got, err := gs.Query(Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ArticleNum != 1 || got[1].ArticleNum != 2 {
		t.Fatalf("expected ascending article_num order, got %+v", got)
	}
}

func TestQuerySubjectFilter(t *testing.T) {
	mgr := NewManager(t.TempDir())
	gs, err := mgr.Open("alt.binaries.test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	rows := []overview.Row{
		{ArticleNum: 1, MessageID: "<a@x>", Subject: "Movie.Title (1/3)"},
		{ArticleNum: 2, MessageID: "<b@x>", Subject: "Spam post"},
	}
	if err := gs.UpsertBatch(rows); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	got, err := gs.Query(Filter{SubjectLike: "movie"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ArticleNum != 1 {
		t.Fatalf("expected one matching row, got %+v", got)
	}

	got, err = gs.Query(Filter{NotSubject: "spam"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ArticleNum != 1 {
		t.Fatalf("expected spam row excluded, got %+v", got)
	}
}

func TestMaxArticleNum(t *testing.T) {
	mgr := NewManager(t.TempDir())
	gs, err := mgr.Open("alt.binaries.test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	max, err := gs.MaxArticleNum()
	if err != nil {
		t.Fatalf("MaxArticleNum (empty): %v", err)
	}
	if max != 0 {
		t.Fatalf("expected 0 for empty store, got %d", max)
	}

	if err := gs.UpsertBatch([]overview.Row{{ArticleNum: 42, MessageID: "<m@x>"}}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
	max, err = gs.MaxArticleNum()
	if err != nil {
		t.Fatalf("MaxArticleNum: %v", err)
	}
	if max != 42 {
		t.Fatalf("expected 42, got %d", max)
	}
}
