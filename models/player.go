package models

import "strings"

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NameKey is the identity used to match players across tournaments:
// trimmed, case-insensitive, exact.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
