package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrNoRows is returned by Decode when a single record was requested and the
// procedure returned none.
var ErrNoRows = errors.New("procedure returned no rows")

// Row is one result row keyed by column name.
type Row map[string]any

// ResultSet is one tabular result returned by a procedure.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Result holds every result set a procedure produced, in order.
type Result struct {
	Sets []ResultSet
}

// First returns the first result set, or an empty one.
func (r *Result) First() ResultSet {
	if r == nil || len(r.Sets) == 0 {
		return ResultSet{}
	}
	return r.Sets[0]
}

// Empty reports whether the procedure returned no rows at all.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	for _, set := range r.Sets {
		if len(set.Rows) > 0 {
			return false
		}
	}
	return true
}

// isJSONSet reports whether the set is FOR JSON output: a single column
// whose string value may be split over several rows.
func (s ResultSet) isJSONSet() bool {
	if len(s.Columns) != 1 {
		return false
	}
	name := s.Columns[0]
	return strings.HasPrefix(name, "JSON_") || strings.EqualFold(name, "json")
}

// Decode unwraps the first result set into v. FOR JSON output is
// concatenated and unmarshalled as-is; tabular output is converted to JSON
// objects keyed by column name. A slice target receives every row, any other
// target the first row (ErrNoRows when there is none).
func (r *Result) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}
	wantSlice := rv.Elem().Kind() == reflect.Slice

	set := r.First()
	var raw []byte
	if set.isJSONSet() {
		var sb strings.Builder
		for _, row := range set.Rows {
			if s, ok := row[set.Columns[0]].(string); ok {
				sb.WriteString(s)
			}
		}
		if sb.Len() == 0 {
			if wantSlice {
				return nil
			}
			return ErrNoRows
		}
		raw = []byte(sb.String())
	} else {
		var err error
		switch {
		case wantSlice:
			rows := set.Rows
			if rows == nil {
				rows = []Row{}
			}
			raw, err = json.Marshal(rows)
		case len(set.Rows) == 0:
			return ErrNoRows
		default:
			raw, err = json.Marshal(set.Rows[0])
		}
		if err != nil {
			return fmt.Errorf("failed to encode rows: %w", err)
		}
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// readResult drains every result set from rows.
func readResult(rows *sql.Rows) (*Result, error) {
	result := &Result{}
	for {
		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		set := ResultSet{Columns: columns}
		for rows.Next() {
			values := make([]any, len(columns))
			ptrs := make([]any, len(columns))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, err
			}
			row := make(Row, len(columns))
			for i, col := range columns {
				if b, ok := values[i].([]byte); ok {
					row[col] = string(b)
					continue
				}
				row[col] = values[i]
			}
			set.Rows = append(set.Rows, row)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			result.Sets = append(result.Sets, set)
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return result, rows.Err()
}
