package pipeline

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite runs fixtures as SQL scripts against a private in-memory database.
//
// Statements run in order. Each statement that returns rows renders as a
// header line of column names, one line per row (values joined by " | ",
// NULL for null) and a row count. The first failing statement renders as
// "error: statement N: <message>" and ends the script.
//
// Statements are split on semicolons outside quotes and comments, so
// trigger bodies containing semicolons are not supported.
type SQLite struct{}

// NewSQLite creates a SQLite pipeline.
func NewSQLite() *SQLite {
	return &SQLite{}
}

func (s *SQLite) Name() string {
	return KindSQLite
}

func (s *SQLite) Process(ctx context.Context, src Source) ([]byte, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// An in-memory database lives as long as its connection, so the whole
	// script runs on one pinned connection.
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to execute pragma: %w", err)
	}

	var out bytes.Buffer
	sets := 0
	for i, stmt := range SplitStatements(string(src.Content)) {
		if returnsRows(stmt) {
			if sets > 0 {
				out.WriteByte('\n')
			}
			sets++
			if err := renderQuery(ctx, conn, stmt, &out); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				fmt.Fprintf(&out, "error: statement %d: %v\n", i+1, err)
				break
			}
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Fprintf(&out, "error: statement %d: %v\n", i+1, err)
			break
		}
	}
	return out.Bytes(), nil
}

func renderQuery(ctx context.Context, conn *sql.Conn, stmt string, out *bytes.Buffer) error {
	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var body bytes.Buffer
	body.WriteString(strings.Join(cols, " | "))
	body.WriteByte('\n')

	n := 0
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		body.WriteString(strings.Join(cells, " | "))
		body.WriteByte('\n')
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	out.Write(body.Bytes())
	if n == 1 {
		out.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(out, "(%d rows)\n", n)
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

var rowKeywords = []string{"SELECT", "WITH", "VALUES", "PRAGMA", "EXPLAIN"}

func returnsRows(stmt string) bool {
	word := strings.ToUpper(firstWord(stripComments(stmt)))
	for _, kw := range rowKeywords {
		if word == kw {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SplitStatements splits a SQL script on top-level semicolons. Quoted
// strings and identifiers ('...', "...", `...`, [...]) and comments
// (-- and /* */) are respected. Statements holding only whitespace or
// comments are dropped; the rest are returned trimmed, without the
// terminating semicolon.
func SplitStatements(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if strings.TrimSpace(stripComments(s)) != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			end := i + 1
			for end < len(script) && script[end] != closer {
				end++
			}
			if end >= len(script) {
				end = len(script) - 1
			}
			cur.WriteString(script[i : end+1])
			i = end
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				end = len(script) - i
			}
			cur.WriteString(script[i : i+end])
			i += end - 1
		case c == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				cur.WriteString(script[i:])
				i = len(script)
				continue
			}
			cur.WriteString(script[i : i+2+end+2])
			i += 2 + end + 1
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts
}

// stripComments removes -- and /* */ comments outside quotes.
func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteString(s[i : i+1+end+1])
			i += end + 1
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				return b.String()
			}
			i += end - 1
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += 2 + end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
