package nzb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nntpidx/nzbidx/internal/overview"
)

func date(u int64) *int64 { return &u }
func size(b uint32) *uint32 { return &b }

func TestAssembleCompletesMultipartFile(t *testing.T) {
	rows := []overview.Row{
		{ArticleNum: 1, MessageID: "<1@x>", Subject: `"movie.rar" yEnc (1/2)`, Poster: "a@x", DateUnix: date(100), BytesLen: size(10)},
		{ArticleNum: 2, MessageID: "<2@x>", Subject: `"movie.rar" yEnc (2/2)`, Poster: "a@x", DateUnix: date(101), BytesLen: size(20)},
	}
	docs, err := Assemble(rows, Options{Group: "alt.binaries.test"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if len(docs[0].Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(docs[0].Files))
	}
	f := docs[0].Files[0]
	if !f.Complete() {
		t.Fatalf("expected file complete, got %+v", f)
	}
	if len(f.Segments) != 2 || f.Segments[0].Number != 1 || f.Segments[1].Number != 2 {
		t.Fatalf("unexpected segments: %+v", f.Segments)
	}
}

func TestAssembleDropsIncompleteByDefault(t *testing.T) {
	rows := []overview.Row{
		{ArticleNum: 1, MessageID: "<1@x>", Subject: `"movie.rar" yEnc (1/3)`, Poster: "a@x"},
		{ArticleNum: 2, MessageID: "<2@x>", Subject: `"movie.rar" yEnc (2/3)`, Poster: "a@x"},
	}
	docs, err := Assemble(rows, Options{Group: "g"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected incomplete file dropped, got %+v", docs)
	}

	docs, err = Assemble(rows, Options{Group: "g", IncludeIncomplete: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(docs) != 1 || len(docs[0].Files) != 1 || docs[0].Files[0].Complete() {
		t.Fatalf("expected incomplete file included, got %+v", docs)
	}
}

func TestAssembleGroupByCollectionProducesOneDocPerPoster(t *testing.T) {
	rows := []overview.Row{
		{ArticleNum: 1, MessageID: "<1@x>", Subject: `"a.rar" yEnc (1/1)`, Poster: "alice@x", DateUnix: date(100), BytesLen: size(10)},
		{ArticleNum: 2, MessageID: "<2@x>", Subject: `"b.rar" yEnc (1/1)`, Poster: "bob@x", DateUnix: date(101), BytesLen: size(20)},
	}
	docs, err := Assemble(rows, Options{Group: "g", GroupByCollection: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, one per poster, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Poster == "" || d.CollectionKey == "" {
			t.Fatalf("expected grouped document to carry poster and collection key, got %+v", d)
		}
	}
}

func TestAssembleWithoutGroupByCollectionCombinesDocuments(t *testing.T) {
	rows := []overview.Row{
		{ArticleNum: 1, MessageID: "<1@x>", Subject: `"a.rar" yEnc (1/1)`, Poster: "alice@x", DateUnix: date(100), BytesLen: size(10)},
		{ArticleNum: 2, MessageID: "<2@x>", Subject: `"b.rar" yEnc (1/1)`, Poster: "bob@x", DateUnix: date(101), BytesLen: size(20)},
	}
	docs, err := Assemble(rows, Options{Group: "g"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(docs) != 1 || len(docs[0].Files) != 2 {
		t.Fatalf("expected 1 combined document with 2 files, got %+v", docs)
	}
}

func TestWriteProducesDoctypeAndSegments(t *testing.T) {
	doc := Document{
		CollectionKey: "movie",
		Files: []File{{
			Subject:    `"movie.rar" yEnc (1/1)`,
			Poster:     "a@x",
			Date:       1700000000,
			Groups:     []string{"alt.binaries.test"},
			Segments:   []Segment{{Number: 1, Bytes: 123, MessageID: "<abc@x>"}},
			PartsSeen:  1,
			PartsTotal: 1,
		}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<!DOCTYPE nzb") {
		t.Fatalf("missing DOCTYPE: %s", out)
	}
	if !strings.Contains(out, `xmlns="http://www.newzbin.com/DTD/2003/nzb"`) {
		t.Fatalf("missing namespace: %s", out)
	}
	if !strings.Contains(out, "abc@x") || strings.Contains(out, "<abc@x>") {
		t.Fatalf("expected bare message-id in segment body: %s", out)
	}
	if !strings.Contains(out, `<segment bytes="123" number="1">`) {
		t.Fatalf("missing segment attributes: %s", out)
	}
}

func TestSanitizeFilenameCollisions(t *testing.T) {
	a := Document{Poster: "a@x", CollectionKey: "movie"}
	b := Document{Poster: "a@x", CollectionKey: "movie!!"}
	docs := []Document{a, b}
	names := UniqueFilenames(docs)
	if names[DocumentKey(a)] == names[DocumentKey(b)] {
		t.Fatalf("expected distinct filenames, got %q and %q", names[DocumentKey(a)], names[DocumentKey(b)])
	}
}

func TestUniqueFilenamesIncludePoster(t *testing.T) {
	docs := []Document{{Poster: "alice@example.com", CollectionKey: "big.release"}}
	names := UniqueFilenames(docs)
	name := names[DocumentKey(docs[0])]
	if !strings.Contains(name, "alice_example.com") || !strings.Contains(name, "big.release") {
		t.Fatalf("expected filename to carry poster and collection key, got %q", name)
	}
}
