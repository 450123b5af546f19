// Package nzb groups indexed overview rows back into multipart files
// and collections and renders them as NZB 1.1 documents.
package nzb

// Segment is one article contributing part of a file's data.
type Segment struct {
	Number    int
	Bytes     uint32
	MessageID string
}

// File is one reconstructed multipart post: a single attachment built
// from one or more article segments sharing a collection key.
type File struct {
	Subject    string
	Poster     string
	Date       int64 // unix seconds of the earliest segment
	Groups     []string
	Segments   []Segment
	PartsSeen  int
	PartsTotal int
}

// Complete reports whether every part from 1..PartsTotal was found.
func (f File) Complete() bool {
	return f.PartsTotal > 0 && f.PartsSeen == f.PartsTotal && len(f.Segments) == f.PartsTotal
}

// Collection is a named group of Files sharing a normalized collection
// key — typically every archive volume of one release.
type Collection struct {
	Key   string
	Files []File
}

// Document is a fully assembled NZB ready for emission. Poster and
// CollectionKey are only populated when the Document was produced by
// grouped assembly (Options.GroupByCollection); a combined document
// spanning every collection in a run leaves both empty.
type Document struct {
	Poster        string
	CollectionKey string
	Files         []File
}

// Options configures Assemble.
type Options struct {
	Group             string // newsgroup name stamped into every file's <groups>
	IncludeIncomplete bool   // emit files missing one or more parts instead of dropping them
	GroupByCollection bool   // one Document per (poster, collection_key) instead of one combined Document
}
