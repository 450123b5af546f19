package nzb

import (
	"sort"
	"strconv"

	"github.com/nntpidx/nzbidx/internal/overview"
	"github.com/nntpidx/nzbidx/internal/subject"
)

// collKey identifies one Collection: every File sharing the same
// poster and normalized collection key.
type collKey struct {
	poster  string
	collKey string
}

// Assemble groups rows into multipart Files keyed by
// (collection_key, file_key, part_total), then groups Files sharing a
// (poster, collection_key) into a single Collection/Document. Rows
// whose subject carries no part marker become single-segment,
// single-part files of their own.
//
// Completeness is determined purely from the part markers seen in the
// subjects themselves — there is no out-of-band part count, so a post
// whose highest observed part index never reaches its declared total
// is reported incomplete via File.Complete().
func Assemble(rows []overview.Row, opts Options) ([]Document, error) {
	type building struct {
		file File
		seen map[int]bool
		coll collKey
	}

	byFileKey := make(map[string]*building)
	var fileOrder []string

	for _, row := range rows {
		analysis := subject.Analyze(row.Subject)

		partIndex := 1
		partTotal := 1
		if analysis.HasParts {
			partIndex = analysis.PartIndex
			partTotal = analysis.PartCount
		}

		// A File is the set of FileParts sharing (collection_key,
		// file_key); part_total is folded into the key too so two
		// files that briefly share an inferred file_key but declare a
		// different total never merge. Files without an identifiable
		// part marker are their own single-part file, keyed by
		// message-id so they never collide with an unrelated post
		// sharing the same free text.
		fileKey := analysis.CollectionKey + "\x00" + analysis.FileKey
		if analysis.HasParts {
			fileKey += "\x00" + strconv.Itoa(partTotal)
		} else {
			fileKey += "\x00" + row.MessageID
		}

		b, ok := byFileKey[fileKey]
		if !ok {
			b = &building{
				file: File{
					Subject:    row.Subject,
					Poster:     row.Poster,
					Groups:     []string{opts.Group},
					PartsTotal: partTotal,
				},
				seen: make(map[int]bool),
				coll: collKey{poster: row.Poster, collKey: analysis.CollectionKey},
			}
			if row.DateUnix != nil {
				b.file.Date = *row.DateUnix
			}
			byFileKey[fileKey] = b
			fileOrder = append(fileOrder, fileKey)
		}

		if partTotal > b.file.PartsTotal {
			b.file.PartsTotal = partTotal
		}
		if row.DateUnix != nil && (b.file.Date == 0 || *row.DateUnix < b.file.Date) {
			b.file.Date = *row.DateUnix
		}
		if !b.seen[partIndex] {
			b.seen[partIndex] = true
			var bytesLen uint32
			if row.BytesLen != nil {
				bytesLen = *row.BytesLen
			}
			b.file.Segments = append(b.file.Segments, Segment{
				Number:    partIndex,
				Bytes:     bytesLen,
				MessageID: row.MessageID,
			})
			b.file.PartsSeen++
		}
	}

	byCollection := make(map[collKey][]File)
	var collOrder []collKey
	var allFiles []File
	for _, key := range fileOrder {
		b := byFileKey[key]
		sort.Slice(b.file.Segments, func(i, j int) bool {
			return b.file.Segments[i].Number < b.file.Segments[j].Number
		})
		if !opts.IncludeIncomplete && !b.file.Complete() {
			continue
		}
		if _, ok := byCollection[b.coll]; !ok {
			collOrder = append(collOrder, b.coll)
		}
		byCollection[b.coll] = append(byCollection[b.coll], b.file)
		allFiles = append(allFiles, b.file)
	}

	// With group_by_collection unset, every surviving File is emitted
	// into a single combined document — the historical default, and
	// the right behavior when the caller wants one NZB per run rather
	// than one per release.
	if !opts.GroupByCollection {
		sort.Slice(allFiles, func(i, j int) bool { return allFiles[i].Date < allFiles[j].Date })
		if len(allFiles) == 0 {
			return nil, nil
		}
		return []Document{{Files: allFiles}}, nil
	}

	sort.Slice(collOrder, func(i, j int) bool {
		if collOrder[i].poster != collOrder[j].poster {
			return collOrder[i].poster < collOrder[j].poster
		}
		return collOrder[i].collKey < collOrder[j].collKey
	})

	docs := make([]Document, 0, len(collOrder))
	for _, key := range collOrder {
		files := byCollection[key]
		sort.Slice(files, func(i, j int) bool { return files[i].Date < files[j].Date })
		docs = append(docs, Document{Poster: key.poster, CollectionKey: key.collKey, Files: files})
	}
	return docs, nil
}
