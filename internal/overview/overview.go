// Package overview turns raw NNTP XOVER lines into normalized rows
// ready for storage. Parsing never fails the whole line on a bad
// numeric or date field — Usenet overview data is notoriously dirty —
// it degrades that one field to nil/zero and keeps the rest.
package overview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nntpidx/nzbidx/internal/nntp"
)

// Row is one parsed overview record for a single article.
type Row struct {
	ArticleNum int64
	Subject    string
	Poster     string
	DateRaw    string
	DateUnix   *int64 // nil when every known layout failed to parse DateRaw
	MessageID  string
	References string
	BytesLen   *uint32
	LineCount  *uint32
	Xref       string // passthrough of an optional trailing Xref: field, if present
}

// Parse converts one already-split OverviewLine (as produced by the
// nntp package's XOVER decoder) into a Row, normalizing the
// message-id to angle-bracket form and resolving DateUnix. It reports
// ok=false for a row with no message-id, which the caller must drop
// rather than store — a message-id is the only thing later stages
// (assembly, dedup) have to key a segment on.
func Parse(line nntp.OverviewLine) (Row, bool) {
	row := Row{
		ArticleNum: line.ArticleNum,
		Subject:    toValidUTF8(strings.TrimSpace(line.Subject)),
		Poster:     toValidUTF8(strings.TrimSpace(line.From)),
		DateRaw:    strings.TrimSpace(line.Date),
		MessageID:  normalizeMessageID(line.MessageID),
		References: strings.TrimSpace(line.References),
	}
	if row.MessageID == "" {
		return Row{}, false
	}

	if t := parseDate(row.DateRaw); !t.IsZero() {
		unix := t.Unix()
		row.DateUnix = &unix
	}

	if line.Bytes >= 0 {
		v := clampUint32(line.Bytes)
		row.BytesLen = &v
	}
	if line.Lines >= 0 {
		v := clampUint32(line.Lines)
		row.LineCount = &v
	}

	return row, true
}

// ParseLine parses a raw tab-delimited XOVER line directly, for
// callers that have not already gone through the nntp package (tests,
// or alternate transports feeding a store import). It returns an
// error for a line with fewer than the eight required overview
// fields, an unparseable article number, or an empty message-id.
func ParseLine(raw string) (Row, error) {
	parts := strings.Split(raw, "\t")
	if len(parts) < 8 {
		return Row{}, errMalformed(raw)
	}
	num, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("overview: unparseable article number %q: %v", parts[0], err)
	}
	bytesLen, err := strconv.ParseInt(parts[6], 10, 64)
	if err != nil {
		bytesLen = -1 // Parse leaves BytesLen nil for a negative value
	}
	lineCount, err := strconv.ParseInt(parts[7], 10, 64)
	if err != nil {
		lineCount = -1
	}
	var xref string
	if len(parts) > 8 {
		for _, extra := range parts[8:] {
			if strings.HasPrefix(strings.ToLower(extra), "xref:") {
				xref = strings.TrimSpace(extra[len("xref:"):])
			}
		}
	}

	row, ok := Parse(nntp.OverviewLine{
		ArticleNum: num,
		Subject:    parts[1],
		From:       parts[2],
		Date:       parts[3],
		MessageID:  parts[4],
		References: parts[5],
		Bytes:      bytesLen,
		Lines:      lineCount,
	})
	if !ok {
		return Row{}, fmt.Errorf("overview: empty message-id: %q", raw)
	}
	row.Xref = xref
	return row, nil
}

func normalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, "<") {
		id = "<" + id
	}
	if !strings.HasSuffix(id, ">") {
		id = id + ">"
	}
	return id
}

func clampUint32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}

type errMalformed string

func (e errMalformed) Error() string { return "overview: malformed line: " + string(e) }
