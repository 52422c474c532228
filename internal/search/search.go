package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
)

type Result struct {
	Namespace   string
	ChunkNumber int
	SessionID   string
	EntryIndex  int
	InputFile   string
	FilePath    string
	Snippet     string
	Rank        float64
}

type Options struct {
	Query     string
	Namespace string // "" = all namespaces
	Limit     int
}

// containsCJK reports whether s contains Han, Hiragana or Katakana text,
// which the unicode61 tokenizer does not split into words.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 || query == "" {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	runePos := len([]rune(text[:idx]))
	qLen := len([]rune(query))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:runePos]))
	b.WriteString(">>>" + string(runes[runePos:runePos+qLen]) + "<<<")
	b.WriteString(string(runes[runePos+qLen : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// Search finds entries matching opts.Query and returns at most one result
// per chunk, best match first.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// over-fetch so enough remain after dedup
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		key := fmt.Sprintf("%s:%d", r.Namespace, r.ChunkNumber)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filters(opts Options, conditions []string, args []any) ([]string, []any) {
	if opts.Namespace != "" {
		conditions = append(conditions, "(c.namespace = ? OR c.namespace LIKE ?)")
		args = append(args, opts.Namespace, "%/"+opts.Namespace)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts, []string{"entries_fts MATCH ?"}, []any{opts.Query})

	query := fmt.Sprintf(`
		SELECT
			c.namespace,
			c.chunk_number,
			c.session_id,
			e.entry_index,
			r.input_file,
			c.file_path,
			snippet(entries_fts, 0, '>>>', '<<<', '...', 40) AS snip,
			bm25(entries_fts, 1.0) AS rank
		FROM entries_fts
		JOIN entries e ON entries_fts.rowid = e.rowid
		JOIN chunks c ON c.namespace = e.namespace AND c.chunk_number = e.chunk_number
		JOIN runs r ON r.namespace = c.namespace
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, func(r *Result, extra string) { r.Snippet = extra })
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts, []string{"e.text LIKE ?"}, []any{"%" + opts.Query + "%"})

	query := fmt.Sprintf(`
		SELECT
			c.namespace,
			c.chunk_number,
			c.session_id,
			e.entry_index,
			r.input_file,
			c.file_path,
			e.text,
			0 AS rank
		FROM entries e
		JOIN chunks c ON c.namespace = e.namespace AND c.chunk_number = e.chunk_number
		JOIN runs r ON r.namespace = c.namespace
		WHERE %s
		ORDER BY c.namespace, c.chunk_number, e.entry_index
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, func(r *Result, text string) { r.Snippet = makeSnippet(text, opts.Query, 30) })
}

// ListChunks returns every indexed chunk in namespace and chunk order, with
// the first entry's text as snippet and no hit entry (EntryIndex -1).
func ListChunks(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts, []string{"1 = 1"}, nil)

	query := fmt.Sprintf(`
		SELECT
			c.namespace,
			c.chunk_number,
			c.session_id,
			-1,
			r.input_file,
			c.file_path,
			COALESCE((SELECT e.text FROM entries e
			          WHERE e.namespace = c.namespace AND e.chunk_number = c.chunk_number
			          ORDER BY e.entry_index LIMIT 1), ''),
			0 AS rank
		FROM chunks c
		JOIN runs r ON r.namespace = c.namespace
		WHERE %s
		ORDER BY c.namespace, c.chunk_number
	`, strings.Join(conditions, " AND "))
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, func(r *Result, text string) { r.Snippet = makeSnippet(text, "", 40) })
}

func scanResults(rows *sql.Rows, setText func(r *Result, text string)) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var text string
		if err := rows.Scan(
			&r.Namespace, &r.ChunkNumber, &r.SessionID, &r.EntryIndex,
			&r.InputFile, &r.FilePath, &text, &r.Rank,
		); err != nil {
			return nil, err
		}
		setText(&r, text)
		results = append(results, r)
	}
	return results, rows.Err()
}
