package reachability

import (
	"encoding/json"
	"strconv"
	"strings"
)

// jsonReferences reports whether raw holds a reference to the item once
// decoded. ok is false when raw is not JSON.
func jsonReferences(raw string, id int64, needles ...string) (found, ok bool) {
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return false, false
	}
	lowered := make([]string, 0, len(needles))
	for _, n := range needles {
		if n != "" {
			lowered = append(lowered, strings.ToLower(n))
		}
	}
	return walkJSON(tree, id, lowered), true
}

func walkJSON(node any, id int64, needles []string) bool {
	switch v := node.(type) {
	case map[string]any:
		for _, value := range v {
			if walkJSON(value, id, needles) {
				return true
			}
		}
	case []any:
		for _, value := range v {
			if walkJSON(value, id, needles) {
				return true
			}
		}
	case float64:
		return v == float64(id)
	case string:
		if v == strconv.FormatInt(id, 10) {
			return true
		}
		s := strings.ToLower(v)
		for _, n := range needles {
			if strings.Contains(s, n) {
				return true
			}
		}
	}
	return false
}

// asInt64 reads an id out of a decoded JSON value or a digit string
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	}
	return 0, false
}
