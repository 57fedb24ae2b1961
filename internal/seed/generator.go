package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// Counts is the shape of a generated dataset.
type Counts struct {
	Jobs        int
	Candidates  int
	Assessments int
}

// DefaultCounts is the standard seeded dataset.
var DefaultCounts = Counts{Jobs: 25, Candidates: 1000, Assessments: 4}

// archivedRatio is the share of seeded jobs created archived.
const archivedRatio = 0.2

var allStages = append(append([]string{}, models.StageOrder...), models.StageRejected)

// Generator builds synthetic datasets. The shape is fixed by Counts; the
// content depends on the random source.
type Generator struct {
	corpus *Corpus
	counts Counts
	rng    *rand.Rand
	now    time.Time
}

// NewGenerator returns a generator over corpus. A zero seed uses the clock.
func NewGenerator(corpus *Corpus, counts Counts, seed int64, now time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		corpus: corpus,
		counts: counts,
		rng:    rand.New(rand.NewSource(seed)),
		now:    now.UTC(),
	}
}

// Generate produces the full dataset.
func (g *Generator) Generate() store.Dataset {
	jobs := g.jobs()
	return store.Dataset{
		Jobs:        jobs,
		Candidates:  g.candidates(jobs),
		Assessments: g.assessments(jobs),
	}
}

func (g *Generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

// pickN returns n distinct elements of list in random order.
func (g *Generator) pickN(list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	out := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(list))[:n] {
		out = append(out, list[i])
	}
	return out
}

// daysAgo returns a time between min and max days before now.
func (g *Generator) daysAgo(min, max int) time.Time {
	span := time.Duration(max-min) * 24 * time.Hour
	offset := time.Duration(min)*24*time.Hour + time.Duration(g.rng.Int63n(int64(span)+1))
	return g.now.Add(-offset).Truncate(time.Second)
}

func (g *Generator) jobs() []*models.Job {
	jobs := make([]*models.Job, 0, g.counts.Jobs)
	seen := make(map[string]int)
	for i := 0; i < g.counts.Jobs; i++ {
		title := g.corpus.Titles[i%len(g.corpus.Titles)]
		slug := models.Slugify(title)
		if n := seen[slug]; n > 0 {
			slug = fmt.Sprintf("%s-%d", slug, n+1)
		}
		seen[models.Slugify(title)]++

		status := models.JobStatusActive
		if g.rng.Float64() < archivedRatio {
			status = models.JobStatusArchived
		}

		created := g.daysAgo(7, 120)
		jobs = append(jobs, &models.Job{
			ID:           uuid.New(),
			Title:        title,
			Slug:         slug,
			Status:       status,
			Tags:         g.pickN(g.corpus.Tags, 1+g.rng.Intn(4)),
			Order:        i + 1,
			Description:  g.pickOr(g.corpus.Descriptions, ""),
			Requirements: g.pickN(g.corpus.Requirements, 2+g.rng.Intn(3)),
			Location:     g.pick(g.corpus.Locations),
			Salary:       g.pick(g.corpus.Salaries),
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}
	return jobs
}

func (g *Generator) pickOr(list []string, def string) string {
	if len(list) == 0 {
		return def
	}
	return g.pick(list)
}

func (g *Generator) candidates(jobs []*models.Job) []*models.Candidate {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]*models.Candidate, 0, g.counts.Candidates)
	for i := 0; i < g.counts.Candidates; i++ {
		first := g.pick(g.corpus.FirstNames)
		last := g.pick(g.corpus.LastNames)
		stage := g.pick(allStages)
		applied := g.daysAgo(20, 90)
		timeline := g.Timeline(stage, applied)

		var notes []string
		if len(g.corpus.Notes) > 0 && g.rng.Intn(3) == 0 {
			notes = g.pickN(g.corpus.Notes, 1+g.rng.Intn(2))
		}

		out = append(out, &models.Candidate{
			ID:        uuid.New(),
			Name:      first + " " + last,
			Email:     email(first, last, i),
			Stage:     stage,
			JobID:     jobs[g.rng.Intn(len(jobs))].ID,
			Phone:     fmt.Sprintf("+1-555-%03d-%04d", g.rng.Intn(1000), g.rng.Intn(10000)),
			Notes:     notes,
			Timeline:  timeline,
			AppliedAt: applied,
			UpdatedAt: timeline[len(timeline)-1].Timestamp,
		})
	}
	return out
}

func email(first, last string, n int) string {
	clean := func(s string) string {
		return strings.NewReplacer(" ", "", "-", "").Replace(strings.ToLower(s))
	}
	return fmt.Sprintf("%s.%s%d@example.com", clean(first), clean(last), n+1)
}

// Timeline returns one entry per funnel stage from applied up to stage, each a
// few days after the last. A rejected candidate gets a random funnel prefix
// followed by the rejection.
func (g *Generator) Timeline(stage string, applied time.Time) []models.TimelineEntry {
	var path []string
	if stage == models.StageRejected {
		reached := 1 + g.rng.Intn(len(models.StageOrder)-1)
		path = append(append(path, models.StageOrder[:reached]...), models.StageRejected)
	} else {
		for _, s := range models.StageOrder {
			path = append(path, s)
			if s == stage {
				break
			}
		}
	}

	entries := make([]models.TimelineEntry, 0, len(path))
	at := applied
	for i, s := range path {
		if i > 0 {
			at = at.Add(time.Duration(1+g.rng.Intn(5)) * 24 * time.Hour)
		}
		entries = append(entries, models.TimelineEntry{
			Stage:     s,
			Timestamp: at,
			Note:      g.corpus.StageNotes[s],
		})
	}
	return entries
}

func (g *Generator) assessments(jobs []*models.Job) []*models.Assessment {
	n := g.counts.Assessments
	if n > len(jobs) {
		n = len(jobs)
	}
	out := make([]*models.Assessment, 0, n)
	for _, idx := range g.rng.Perm(len(jobs))[:n] {
		job := jobs[idx]
		at := job.CreatedAt.Add(24 * time.Hour)
		out = append(out, &models.Assessment{
			ID:          uuid.New(),
			JobID:       job.ID,
			Title:       job.Title + " Assessment",
			Description: "Screening questions for " + job.Title,
			Sections:    g.sections(),
			CreatedAt:   at,
			UpdatedAt:   at,
		})
	}
	return out
}

// sections splits the corpus questions into two sections. Conditional
// questions always stay in the same section as the question they depend on.
func (g *Generator) sections() []models.Section {
	qs := g.corpus.Questions
	if len(qs) == 0 {
		return []models.Section{}
	}

	questions := make([]models.Question, len(qs))
	for i, tmpl := range qs {
		q := models.Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Type:    tmpl.Type,
			Label:   tmpl.Label,
			Options: append([]string(nil), tmpl.Options...),
			Validation: models.Validation{
				Required:  tmpl.Required,
				MinLength: tmpl.MinLength,
				MaxLength: tmpl.MaxLength,
				Min:       tmpl.Min,
				Max:       tmpl.Max,
			},
		}
		if tmpl.ConditionOnPrevious != "" && i > 0 {
			q.Condition = &models.Condition{QuestionID: questions[i-1].ID, Equals: tmpl.ConditionOnPrevious}
		}
		questions[i] = q
	}

	split := len(questions) / 2
	for split < len(questions) && questions[split].Condition != nil {
		split++
	}
	sections := []models.Section{{ID: "s1", Title: "Background", Questions: questions[:split]}}
	if split < len(questions) {
		sections = append(sections, models.Section{ID: "s2", Title: "Experience", Questions: questions[split:]})
	}
	return sections
}
