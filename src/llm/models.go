package llm

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// KnownModels lists the model names offered in the model selector.
var KnownModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
}

// ResolveModel maps a partial name such as "25pro" onto a known model. Exact
// names pass through, as do queries nothing matches.
func ResolveModel(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}
	for _, m := range KnownModels {
		if strings.EqualFold(m, query) {
			return m
		}
	}
	matches := fuzzy.Find(query, KnownModels)
	if len(matches) == 0 {
		return query
	}
	return matches[0].Str
}
