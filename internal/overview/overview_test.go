package overview

import (
	"testing"

	"github.com/nntpidx/nzbidx/internal/nntp"
)

func TestParseLineNormalizesMessageID(t *testing.T) {
	row, err := ParseLine("42\tSubject here\tJane <jane@x.com>\tMon, 1 Jan 2024 00:00:00 +0000\tabc123@example.com\t\t1024\t20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.MessageID != "<abc123@example.com>" {
		t.Fatalf("message id not normalized: %q", row.MessageID)
	}
	if row.DateUnix == nil {
		t.Fatalf("expected date to parse")
	}
	if row.BytesLen == nil || *row.BytesLen != 1024 {
		t.Fatalf("bytes not parsed: %+v", row.BytesLen)
	}
}

func TestParseLineBadDateKeepsRawNilUnix(t *testing.T) {
	row, err := ParseLine("1\tsubj\tfrom\tnot-a-date\t<id@x>\t\t10\t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.DateUnix != nil {
		t.Fatalf("expected nil DateUnix for unparseable date, got %v", *row.DateUnix)
	}
	if row.DateRaw != "not-a-date" {
		t.Fatalf("expected raw date preserved, got %q", row.DateRaw)
	}
}

func TestParseLineTooFewFields(t *testing.T) {
	if _, err := ParseLine("1\tsubj\tfrom"); err == nil {
		t.Fatalf("expected error for too few fields")
	}
}

func TestParseLineRejectsEmptyMessageID(t *testing.T) {
	if _, err := ParseLine("1\tsubj\tfrom\tdate\t\t\t10\t1"); err == nil {
		t.Fatalf("expected error for empty message-id")
	}
}

func TestParseLineRejectsUnparseableArticleNum(t *testing.T) {
	if _, err := ParseLine("not-a-number\tsubj\tfrom\tdate\t<id@x>\t\t10\t1"); err == nil {
		t.Fatalf("expected error for unparseable article number")
	}
}

func TestParseDropsRowWithEmptyMessageID(t *testing.T) {
	_, ok := Parse(nntp.OverviewLine{
		ArticleNum: 1,
		Subject:    "subj",
		From:       "from",
		Date:       "date",
		MessageID:  "",
		Bytes:      10,
		Lines:      1,
	})
	if ok {
		t.Fatalf("expected Parse to drop row with empty message-id")
	}
}
