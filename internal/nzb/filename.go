package nzb

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reDisallowedFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	reMultiUnderscore         = regexp.MustCompile(`_+`)
)

const maxFilenameLength = 180

// SanitizeFilename converts an arbitrary collection key or subject
// into a safe .nzb output basename: disallowed characters become
// underscores, runs collapse, and the result is length-capped.
func SanitizeFilename(name string) string {
	s := reDisallowedFilenameChars.ReplaceAllString(name, "_")
	s = reMultiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "nzb"
	}
	if len(s) > maxFilenameLength {
		s = s[:maxFilenameLength]
	}
	return s
}

// DocumentKey returns the identity UniqueFilenames keys its result
// map by: (poster, collection_key), since collection_key alone is not
// unique once two different posters share one collection key.
func DocumentKey(d Document) string {
	return d.Poster + "\x00" + d.CollectionKey
}

// UniqueFilenames assigns each document a ".nzb" filename, appending
// "-2", "-3", ... suffixes on collision so no two documents in the
// same batch overwrite each other. A grouped document (one produced
// per (poster, collection_key)) is named
// sanitize(from_addr) + "__" + sanitize(collection_key); a combined
// document spanning every collection in the run — Poster and
// CollectionKey both empty — is named "combined".
func UniqueFilenames(docs []Document) map[string]string {
	used := make(map[string]int)
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		base := "combined"
		if d.Poster != "" || d.CollectionKey != "" {
			base = SanitizeFilename(d.Poster) + "__" + SanitizeFilename(d.CollectionKey)
		}
		used[base]++
		n := used[base]
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		names[DocumentKey(d)] = name + ".nzb"
	}
	return names
}
