package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordID wraps a bare entity id into a SurrealDB record id.
func recordID(table, id string) string {
	return table + ":" + id
}

// bareID strips the table prefix and any angle-bracket escaping from a
// SurrealDB record id, returning the bare entity id.
func bareID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	id = strings.TrimPrefix(id, "⟨")
	id = strings.TrimSuffix(id, "⟩")
	return id
}

// convertSurrealID normalizes the driver's id representations to a string.
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		tb, _ := v["tb"].(string)
		idPart := ""
		if inner, ok := v["id"]; ok {
			idPart = fmt.Sprintf("%v", inner)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		return idPart
	}
	return fmt.Sprintf("%v", id)
}

// entityID converts a driver id to the bare entity id used above this package.
func entityID(id interface{}) string {
	return bareID(convertSurrealID(id))
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// getMap extracts a nested object from a map
func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// getMapSlice extracts a slice of nested objects from a map
func getMapSlice(m map[string]interface{}, key string) []map[string]interface{} {
	v, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]map[string]interface{}, 0, len(v))
	for _, item := range v {
		if mm, ok := item.(map[string]interface{}); ok {
			result = append(result, mm)
		}
	}
	return result
}

// getBoolMap extracts a map of bool flags from a map
func getBoolMap(m map[string]interface{}, key string) map[string]bool {
	v, ok := m[key].(map[string]interface{})
	if !ok {
		return nil
	}
	result := make(map[string]bool, len(v))
	for k, item := range v {
		if b, ok := item.(bool); ok {
			result[k] = b
		}
	}
	return result
}

// unwrapRows flattens the {status, result} wrappers of a Query response into
// the row maps of the first statement.
func unwrapRows(result []interface{}) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0)
	for _, res := range result {
		resp, ok := res.(map[string]interface{})
		if !ok {
			continue
		}
		resultData, ok := resp["result"].([]interface{})
		if !ok {
			continue
		}
		for _, item := range resultData {
			if row, ok := item.(map[string]interface{}); ok {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// extractCount reads a count() aggregate from a QueryOne result.
func extractCount(result interface{}) int {
	if row, ok := result.(map[string]interface{}); ok {
		return getInt(row, "count")
	}
	switch v := result.(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case int:
		return v
	}
	return 0
}
