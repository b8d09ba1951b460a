// Package query owns the submission lifecycle for one query and the
// normalization of heterogeneous backend payloads into a single tabular
// result shape.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row maps column name to cell value for one result row.
type Row map[string]any

// Result is the normalized outcome of one submission. It is either an
// error result (Err set; rows ignored) or a success result (rows
// present, possibly empty). Err takes precedence when both are set.
type Result struct {
	GeneratedQuery string
	Columns        []string
	Rows           []Row
	ExecutionTime  *float64
	Err            string
}

// IsError reports whether the error path should be rendered.
func (r *Result) IsError() bool { return r.Err != "" }

// payload tolerates both response generations the service has shipped:
// rows under `results` or under `data`, with optional generated SQL,
// timing, and error fields.
type payload struct {
	Results []json.RawMessage `json:"results"`
	Data    []json.RawMessage `json:"data"`
	SQL     string            `json:"sql_query"`
	Time    *float64          `json:"execution_time"`
	Error   string            `json:"error"`
}

// Normalize maps an arbitrary response payload into a Result. Rows come
// from the first of `results` or `data` that is present; neither means
// an empty result. The column set is derived from the keys of the first
// row only, in wire order; rows with differing key sets are not
// reconciled.
func Normalize(raw json.RawMessage) *Result {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return &Result{Err: fmt.Sprintf("unrecognized response: %v", err)}
	}

	res := &Result{
		GeneratedQuery: p.SQL,
		ExecutionTime:  p.Time,
		Err:            p.Error,
	}

	rawRows := p.Results
	if rawRows == nil {
		rawRows = p.Data
	}

	for i, rr := range rawRows {
		var row Row
		if err := json.Unmarshal(rr, &row); err != nil {
			res.Err = fmt.Sprintf("unrecognized row %d: %v", i, err)
			return res
		}
		if i == 0 {
			res.Columns = firstRowColumns(rr)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// firstRowColumns extracts the first row's keys in wire order. A plain
// map unmarshal would lose ordering, so the raw object is walked
// token by token.
func firstRowColumns(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}

	var cols []string
	depth := 0
	for dec.More() || depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		case string:
			if depth == 0 {
				cols = append(cols, v)
				// Skip the value so the next string token is a key.
				var discard json.RawMessage
				if err := dec.Decode(&discard); err != nil {
					return cols
				}
			}
		}
		if depth < 0 {
			break
		}
	}
	return cols
}

// CellText renders one cell value as text. Scalars keep their natural
// form; nested values get their canonical JSON encoding rather than a
// Go-formatted object dump.
func CellText(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
