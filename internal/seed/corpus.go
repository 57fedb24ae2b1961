package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Corpus is the fixed word lists seeded content is drawn from.
type Corpus struct {
	FirstNames   []string          `yaml:"first_names"`
	LastNames    []string          `yaml:"last_names"`
	Titles       []string          `yaml:"titles"`
	Tags         []string          `yaml:"tags"`
	Locations    []string          `yaml:"locations"`
	Salaries     []string          `yaml:"salaries"`
	Requirements []string          `yaml:"requirements"`
	Descriptions []string          `yaml:"descriptions"`
	Notes        []string          `yaml:"notes"`
	StageNotes   map[string]string `yaml:"stage_notes"`
	Questions    []QuestionTemplate    `yaml:"questions"`
}

// QuestionTemplate is a question template. ConditionOnPrevious makes the question
// visible only when the preceding question was answered with that value.
type QuestionTemplate struct {
	Type                string   `yaml:"type"`
	Label               string   `yaml:"label"`
	Options             []string `yaml:"options"`
	Required            bool     `yaml:"required"`
	MinLength           *int     `yaml:"min_length"`
	MaxLength           *int     `yaml:"max_length"`
	Min                 *float64 `yaml:"min"`
	Max                 *float64 `yaml:"max"`
	ConditionOnPrevious string   `yaml:"condition_on_previous"`
}

// DefaultCorpus parses the embedded corpus.
func DefaultCorpus() (*Corpus, error) {
	return ParseCorpus(corpusYAML)
}

func ParseCorpus(data []byte) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse seed corpus: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Corpus) validate() error {
	lists := map[string][]string{
		"first_names": c.FirstNames,
		"last_names":  c.LastNames,
		"titles":      c.Titles,
		"tags":        c.Tags,
		"locations":   c.Locations,
		"salaries":    c.Salaries,
	}
	for name, l := range lists {
		if len(l) == 0 {
			return fmt.Errorf("seed corpus: %s must not be empty", name)
		}
	}
	if len(c.Questions) > 0 && c.Questions[0].ConditionOnPrevious != "" {
		return fmt.Errorf("seed corpus: first question cannot be conditional")
	}
	return nil
}
