package store

import (
	"strings"

	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a user search term for a substring LIKE match, escaping the
// wildcard characters it contains.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func timelineOrEmpty(t []models.TimelineEntry) []models.TimelineEntry {
	if t == nil {
		return []models.TimelineEntry{}
	}
	return t
}

func sectionsOrEmpty(s []models.Section) []models.Section {
	if s == nil {
		return []models.Section{}
	}
	return s
}

func answersOrEmpty(a []models.Answer) []models.Answer {
	if a == nil {
		return []models.Answer{}
	}
	return a
}
