// Package subject extracts multipart structure from Usenet binary
// post subjects, the way every NZB-producing indexer has to: there is
// no reliable machine-readable header for "this is part 3 of 12 of
// file X", only convention stamped into the free-text Subject line.
package subject

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// rightmost part marker wins: posters sometimes wrap a release tag
	// in parens/brackets earlier in the subject (e.g. a group tag) and
	// only the trailing one is the real part counter.
	rePartParen   = regexp.MustCompile(`\((\d+)\s*/\s*(\d+)\)`)
	rePartBracket = regexp.MustCompile(`\[(\d+)\s*/\s*(\d+)\]`)
	reFileOf      = regexp.MustCompile(`(?i)file\s+(\d+)\s+of\s+(\d+)`)

	reQuotedName = regexp.MustCompile(`"([^"]+)"`)
	reBareName   = regexp.MustCompile(`([\w][\w .\-]*\.[A-Za-z0-9]{2,4})`)

	reYenc          = regexp.MustCompile(`(?i)\byenc\b`)
	rePartMarkerAny = regexp.MustCompile(`[\(\[]\s*\d+\s*/\s*\d+\s*[\)\]]`)
	reFileOfAny     = regexp.MustCompile(`(?i)file\s+\d+\s+of\s+\d+`)
	reSizeToken     = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s?([kmg]b|bytes)\b`)
	reSizeParen     = regexp.MustCompile(`\(\d+\)`)
	reMultiVolSuf   = regexp.MustCompile(`(?i)\.(part\d+|r\d{2,3}|vol\d+(\+\d+)?)(\.rar)?$`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// Result is what one subject line tells us about the article's place
// in a larger multipart post.
type Result struct {
	HasParts      bool
	PartIndex     int
	PartCount     int
	Filename      string // best-guess decoded filename, empty if none found
	CollectionKey string // normalized key grouping every file of one release together
	FileKey       string // normalized key grouping every part of one file together
}

// Analyze parses subject into a Result. It never errors: an
// unparsable subject simply yields HasParts=false and a
// CollectionKey/FileKey derived from the whole normalized subject, so
// callers can still group exact-subject repeats (e.g. single-part
// posts).
func Analyze(subject string) Result {
	res := Result{}

	if idx, cnt, ok := findPartMarker(subject); ok {
		res.HasParts = true
		res.PartIndex = idx
		res.PartCount = cnt
	}

	res.Filename = findFilename(subject)
	res.CollectionKey = normalizeCollectionKey(subject)

	// File key: the inferred filename when one was found, otherwise the
	// subject with just the part marker stripped out — distinct from
	// CollectionKey, which also strips yEnc/size/volume tokens so that
	// every *file* in a release collapses to the same collection.
	if res.Filename != "" {
		res.FileKey = res.Filename
	} else {
		res.FileKey = stripPartMarker(subject)
	}

	return res
}

// stripPartMarker removes only the part-marker substrings from
// subject, leaving everything else (including yEnc/size tokens)
// intact — used for the file key of subjects with no quoted or
// bareword filename.
func stripPartMarker(subject string) string {
	s := rePartMarkerAny.ReplaceAllString(subject, "")
	s = reFileOfAny.ReplaceAllString(s, "")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// findPartMarker scans for (N/M), [N/M] and "file N of M", preferring
// whichever occurs last in the subject — that's the one actually
// describing this article, per observed posting convention.
func findPartMarker(subject string) (index, count int, ok bool) {
	type match struct {
		pos        int
		idx, count int
	}
	var matches []match

	for _, m := range rePartParen.FindAllStringSubmatchIndex(subject, -1) {
		idx, _ := strconv.Atoi(subject[m[2]:m[3]])
		cnt, _ := strconv.Atoi(subject[m[4]:m[5]])
		matches = append(matches, match{m[0], idx, cnt})
	}
	for _, m := range rePartBracket.FindAllStringSubmatchIndex(subject, -1) {
		idx, _ := strconv.Atoi(subject[m[2]:m[3]])
		cnt, _ := strconv.Atoi(subject[m[4]:m[5]])
		matches = append(matches, match{m[0], idx, cnt})
	}
	for _, m := range reFileOf.FindAllStringSubmatchIndex(subject, -1) {
		idx, _ := strconv.Atoi(subject[m[2]:m[3]])
		cnt, _ := strconv.Atoi(subject[m[4]:m[5]])
		matches = append(matches, match{m[0], idx, cnt})
	}
	if len(matches) == 0 {
		return 0, 0, false
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.pos > best.pos {
			best = m
		}
	}
	if best.idx <= 0 || best.count <= 0 || best.idx > best.count {
		return 0, 0, false
	}
	return best.idx, best.count, true
}

// findFilename prefers the longest double-quoted filename (the
// overwhelming majority convention) and falls back to the rightmost
// bareword that looks like name.ext.
func findFilename(subject string) string {
	if m := reQuotedName.FindAllStringSubmatch(subject, -1); len(m) > 0 {
		longest := m[0][1]
		for _, candidate := range m[1:] {
			if len(candidate[1]) > len(longest) {
				longest = candidate[1]
			}
		}
		return strings.TrimSpace(longest)
	}
	if m := reBareName.FindAllStringSubmatch(subject, -1); len(m) > 0 {
		rightmost := m[len(m)-1][1]
		return strings.TrimSpace(rightmost)
	}
	return ""
}

// normalizeCollectionKey strips everything that varies between files
// and parts of the same release (part markers, yEnc/size annotations,
// multi-volume archive suffixes) directly from subject, so every part
// of every file collapses to the same key. If stripping leaves nothing
// behind, it falls back to the normalized subject verbatim so short or
// unusual subjects still get a stable, non-empty key.
func normalizeCollectionKey(subject string) string {
	s := subject
	s = reYenc.ReplaceAllString(s, "")
	s = reSizeToken.ReplaceAllString(s, "")
	s = reSizeParen.ReplaceAllString(s, "")
	s = rePartMarkerAny.ReplaceAllString(s, "")
	s = reFileOfAny.ReplaceAllString(s, "")
	s = reMultiVolSuf.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(reWhitespace.ReplaceAllString(s, " ")))
	if s != "" {
		return s
	}
	return strings.ToLower(strings.TrimSpace(reWhitespace.ReplaceAllString(subject, " ")))
}
