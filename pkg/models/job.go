package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	JobStatusActive   = "active"
	JobStatusArchived = "archived"
)

// Job is a posting on the jobs board. Order is the 1-based display rank and is kept
// dense across creates, reorders and deletes.
type Job struct {
	ID           uuid.UUID `db:"id"           json:"id"`
	Title        string    `db:"title"        json:"title"`
	Slug         string    `db:"slug"         json:"slug"`
	Status       string    `db:"status"       json:"status"`
	Tags         []string  `db:"tags"         json:"tags"`
	Order        int       `db:"sort_order"   json:"order"`
	Description  string    `db:"description"  json:"description"`
	Requirements []string  `db:"requirements" json:"requirements"`
	Location     string    `db:"location"     json:"location"`
	Salary       string    `db:"salary"       json:"salary"`
	CreatedAt    time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at"   json:"updatedAt"`
}

// ValidJobStatus reports whether s is a known job status.
func ValidJobStatus(s string) bool {
	return s == JobStatusActive || s == JobStatusArchived
}

// Slugify lowercases title and joins its alphanumeric runs with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
