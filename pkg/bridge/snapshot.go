package bridge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/quotegate/pkg/engine"
)

// Snapshot is one projected read of the output table: key to cell text.
type Snapshot map[string]string

// Project flattens an output table into a Snapshot. The first cell of a row
// is the key and the second the value; a missing value reads as "". Rows
// with a blank key are skipped and a later row wins over an earlier one with
// the same key. A key cell that is not text, or a value cell that is not a
// scalar, yields a *ContractError without a token.
func Project(rows []engine.Row) (Snapshot, error) {
	snap := make(Snapshot, len(rows))
	for i, row := range rows {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		key, ok := row[0].(string)
		if !ok {
			return nil, &ContractError{Row: i, Reason: fmt.Sprintf("key cell is %T, want text", row[0])}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		value := ""
		if len(row) > 1 {
			text, ok := cellText(row[1])
			if !ok {
				return nil, &ContractError{Row: i, Reason: fmt.Sprintf("value cell for %q is %T, want a scalar", key, row[1])}
			}
			value = text
		}
		snap[key] = value
	}
	return snap, nil
}

func cellText(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	case []byte:
		return string(v), true
	}
	return "", false
}

// truthy reports whether a completion flag cell is set.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "ja", "x", "done":
		return true
	}
	return false
}
