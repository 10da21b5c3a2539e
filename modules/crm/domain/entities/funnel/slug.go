package funnel

import "strings"

// Slug derives the stable key from a display name: lowercase with
// spaces collapsed to single underscores. "Vendas Novas" -> "vendas_novas".
func Slug(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, "_")
}
