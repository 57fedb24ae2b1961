// Package assessment checks assessment drafts and validates candidate
// submissions against them.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/kiranshivaraju/hiretrack/pkg/models"
	"github.com/qri-io/jsonschema"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid assessment data")

type FieldError struct {
	QuestionID string `json:"questionId,omitempty"`
	Message    string `json:"message"`
}

// ValidationError lists every problem found in a draft or a submission.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		if fe.QuestionID == "" {
			parts[i] = fe.Message
		} else {
			parts[i] = fe.QuestionID + ": " + fe.Message
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func (e *ValidationError) add(qid, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{QuestionID: qid, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

func isChoice(t string) bool {
	return t == models.QuestionSingleChoice || t == models.QuestionMultiChoice
}

// CheckDraft validates the structure of a builder draft: question ids are
// unique, types are known, choice questions have options, bounds are ordered
// and conditions point at an earlier question.
func CheckDraft(a *models.Assessment) error {
	verr := &ValidationError{}
	if strings.TrimSpace(a.Title) == "" {
		verr.add("", "title is required")
	}

	seen := make(map[string]bool)
	for _, s := range a.Sections {
		for _, q := range s.Questions {
			if q.ID == "" {
				verr.add("", "question in section %q has no id", s.Title)
				continue
			}
			if seen[q.ID] {
				verr.add(q.ID, "duplicate question id")
			}
			if !models.ValidQuestionType(q.Type) {
				verr.add(q.ID, "unknown question type %q", q.Type)
			}
			if isChoice(q.Type) && len(q.Options) == 0 {
				verr.add(q.ID, "choice question needs options")
			}
			v := q.Validation
			if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
				verr.add(q.ID, "minLength exceeds maxLength")
			}
			if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
				verr.add(q.ID, "min exceeds max")
			}
			if q.Condition != nil && !seen[q.Condition.QuestionID] {
				verr.add(q.ID, "condition references unknown or later question %q", q.Condition.QuestionID)
			}
			seen[q.ID] = true
		}
	}
	return verr.orNil()
}

// normalize re-encodes v through JSON so ints and float64s compare equal.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func conditionMet(answer, equals any) bool {
	answer, equals = normalize(answer), normalize(equals)
	if list, ok := answer.([]any); ok {
		for _, item := range list {
			if reflect.DeepEqual(item, equals) {
				return true
			}
		}
		return false
	}
	return reflect.DeepEqual(answer, equals)
}

func answered(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	}
	return true
}

// Visible reports which questions are shown for the given answers. A question
// with a condition is shown only when the referenced question is itself shown
// and its answer matches.
func Visible(a *models.Assessment, answers map[string]any) map[string]bool {
	visible := make(map[string]bool)
	for _, q := range a.Questions() {
		if q.Condition == nil {
			visible[q.ID] = true
			continue
		}
		ref := q.Condition.QuestionID
		visible[q.ID] = visible[ref] && conditionMet(answers[ref], q.Condition.Equals)
	}
	return visible
}

// Schema builds the JSON Schema for the answers to the visible questions.
// Required is enforced separately so its error names the question.
func Schema(a *models.Assessment, visible map[string]bool) map[string]any {
	props := make(map[string]any)
	for _, q := range a.Questions() {
		if !visible[q.ID] {
			continue
		}
		props[q.ID] = questionSchema(q)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func questionSchema(q models.Question) map[string]any {
	v := q.Validation
	switch q.Type {
	case models.QuestionSingleChoice:
		return map[string]any{"type": "string", "enum": q.Options}
	case models.QuestionMultiChoice:
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string", "enum": q.Options},
			"uniqueItems": true,
		}
	case models.QuestionNumeric:
		s := map[string]any{"type": "number"}
		if v.Min != nil {
			s["minimum"] = *v.Min
		}
		if v.Max != nil {
			s["maximum"] = *v.Max
		}
		return s
	default:
		s := map[string]any{"type": "string"}
		if v.MinLength != nil {
			s["minLength"] = *v.MinLength
		}
		if v.MaxLength != nil {
			s["maxLength"] = *v.MaxLength
		}
		return s
	}
}

// Validate checks answers against a. It returns the answers that are kept:
// hidden and empty answers are dropped, the rest come back in question order.
func Validate(ctx context.Context, a *models.Assessment, answers []models.Answer) ([]models.Answer, error) {
	verr := &ValidationError{}
	known := make(map[string]bool)
	for _, q := range a.Questions() {
		known[q.ID] = true
	}

	byID := make(map[string]any, len(answers))
	for _, ans := range answers {
		_, dup := byID[ans.QuestionID]
		switch {
		case !known[ans.QuestionID]:
			verr.add(ans.QuestionID, "unknown question")
		case dup:
			verr.add(ans.QuestionID, "answered more than once")
		default:
			byID[ans.QuestionID] = normalize(ans.Value)
		}
	}
	if len(verr.Errors) > 0 {
		return nil, verr
	}

	visible := Visible(a, byID)
	doc := make(map[string]any)
	var kept []models.Answer
	for _, q := range a.Questions() {
		if !visible[q.ID] {
			continue
		}
		val := byID[q.ID]
		if !answered(val) {
			if q.Validation.Required {
				verr.add(q.ID, "answer is required")
			}
			continue
		}
		doc[q.ID] = val
		kept = append(kept, models.Answer{QuestionID: q.ID, Value: val})
	}

	keyErrs, err := validateSchema(ctx, Schema(a, visible), doc)
	if err != nil {
		return nil, err
	}
	for _, ke := range keyErrs {
		verr.add(questionFromPath(ke.PropertyPath), "%s", ke.Message)
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return kept, nil
}

func validateSchema(ctx context.Context, schema, doc map[string]any) ([]jsonschema.KeyError, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaBytes, rs); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	keyErrs, err := rs.ValidateBytes(ctx, docBytes)
	if err != nil {
		return nil, fmt.Errorf("validate answers: %w", err)
	}
	return keyErrs, nil
}

// questionFromPath maps "/q3" or "/q3/0" to "q3".
func questionFromPath(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

// Score is the share of visible questions that were answered, in [0, 1].
func Score(a *models.Assessment, kept []models.Answer) float64 {
	byID := make(map[string]any, len(kept))
	for _, ans := range kept {
		byID[ans.QuestionID] = ans.Value
	}
	visible := Visible(a, byID)

	total := 0
	for _, ok := range visible {
		if ok {
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(len(kept)) / float64(total)
}
