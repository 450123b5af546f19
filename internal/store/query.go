package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/nntpidx/nzbidx/internal/overview"
)

// Filter narrows a Query to a subset of articles. Zero values mean
// "no constraint" for that field.
type Filter struct {
	SubjectLike string // substring match, case-insensitive
	NotSubject  string // exclude rows whose subject contains this substring
	PosterLike  string
	DateFrom    int64 // unix seconds, inclusive; 0 means unbounded
	DateTo      int64 // unix seconds, inclusive; 0 means unbounded
	Limit       int   // 0 means unbounded
}

// Query returns articles matching f ordered ascending by article_num,
// the order the NZB assembler expects.
func (gs *GroupStore) Query(f Filter) ([]overview.Row, error) {
	var where []string
	var args []interface{}

	if f.SubjectLike != "" {
		where = append(where, `subject LIKE ? ESCAPE '\' COLLATE NOCASE`)
		args = append(args, "%"+escapeLike(f.SubjectLike)+"%")
	}
	if f.NotSubject != "" {
		where = append(where, `subject NOT LIKE ? ESCAPE '\' COLLATE NOCASE`)
		args = append(args, "%"+escapeLike(f.NotSubject)+"%")
	}
	if f.PosterLike != "" {
		where = append(where, `poster LIKE ? ESCAPE '\' COLLATE NOCASE`)
		args = append(args, "%"+escapeLike(f.PosterLike)+"%")
	}
	if f.DateFrom != 0 {
		where = append(where, `date_unix >= ?`)
		args = append(args, f.DateFrom)
	}
	if f.DateTo != 0 {
		where = append(where, `date_unix <= ?`)
		args = append(args, f.DateTo)
	}

	query := `SELECT article_num, message_id, subject, poster, date_string, date_unix, "references", bytes_len, line_count, xref FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY article_num ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := gs.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []overview.Row
	for rows.Next() {
		var r overview.Row
		var dateUnix, bytesLen, lineCount sql.NullInt64
		if err := rows.Scan(&r.ArticleNum, &r.MessageID, &r.Subject, &r.Poster, &r.DateRaw, &dateUnix, &r.References, &bytesLen, &lineCount, &r.Xref); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", ErrStore, err)
		}
		if dateUnix.Valid {
			v := dateUnix.Int64
			r.DateUnix = &v
		}
		if bytesLen.Valid {
			v := uint32(bytesLen.Int64)
			r.BytesLen = &v
		}
		if lineCount.Valid {
			v := uint32(lineCount.Int64)
			r.LineCount = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rows: %v", ErrStore, err)
	}
	return out, nil
}

// RangeQuery returns articles whose article_num falls in [low, high],
// ordered ascending by article_num.
func (gs *GroupStore) RangeQuery(low, high int64) ([]overview.Row, error) {
	rows, err := gs.DB.Query(
		`SELECT article_num, message_id, subject, poster, date_string, date_unix, "references", bytes_len, line_count, xref
		 FROM articles WHERE article_num >= ? AND article_num <= ? ORDER BY article_num ASC`,
		low, high,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: range query: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []overview.Row
	for rows.Next() {
		var r overview.Row
		var dateUnix, bytesLen, lineCount sql.NullInt64
		if err := rows.Scan(&r.ArticleNum, &r.MessageID, &r.Subject, &r.Poster, &r.DateRaw, &dateUnix, &r.References, &bytesLen, &lineCount, &r.Xref); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", ErrStore, err)
		}
		if dateUnix.Valid {
			v := dateUnix.Int64
			r.DateUnix = &v
		}
		if bytesLen.Valid {
			v := uint32(bytesLen.Int64)
			r.BytesLen = &v
		}
		if lineCount.Valid {
			v := uint32(lineCount.Int64)
			r.LineCount = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MaxArticleNum returns the highest stored article_num, or 0 if the
// group has no rows yet — used to pick up an interrupted fetch.
func (gs *GroupStore) MaxArticleNum() (int64, error) {
	var max sql.NullInt64
	err := gs.DB.QueryRow(`SELECT MAX(article_num) FROM articles`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("%w: reading max article_num: %v", ErrStore, err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
