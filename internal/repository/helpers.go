package repository

import "strings"

// containsPattern lowercased LIKE pattern matching q anywhere
func containsPattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
