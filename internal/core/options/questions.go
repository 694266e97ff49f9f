package options

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/noah-isme/commission-api/internal/models"
)

type questionShape int

const (
	shapeCanonical questionShape = iota
	shapePlain
	shapeTitled
	shapeLabelled
	shapeOther
)

// RawQuestion is a question as submitted by a client. Besides the canonical
// {id, text} object it accepts a bare string, a {title} object, a {label, id}
// object, and falls back to the string form of any other JSON value.
type RawQuestion struct {
	shape questionShape
	id    int
	text  string
}

// UnmarshalJSON classifies the payload into one of the accepted shapes.
func (q *RawQuestion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*q = RawQuestion{shape: shapeOther, text: string(data)}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		q.shape, q.text = shapePlain, plain
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}
	if text, ok := stringField(fields, "text"); ok {
		q.shape, q.text, q.id = shapeCanonical, text, intField(fields, "id")
		return nil
	}
	if title, ok := stringField(fields, "title"); ok {
		q.shape, q.text = shapeTitled, title
		return nil
	}
	if label, ok := stringField(fields, "label"); ok {
		q.shape, q.text, q.id = shapeLabelled, label, intField(fields, "id")
		return nil
	}
	return nil
}

// NewQuestion builds an already canonical RawQuestion.
func NewQuestion(id int, text string) RawQuestion {
	return RawQuestion{shape: shapeCanonical, id: id, text: text}
}

// Canonical converts q, found at position index of its list, into a Question.
// Canonical questions without an id keep id 0 so Questions can number them.
func (q RawQuestion) Canonical(index int) models.Question {
	text := strings.TrimSpace(q.text)
	switch q.shape {
	case shapeCanonical:
		return models.Question{ID: q.id, Text: text}
	case shapeLabelled:
		if q.id > 0 {
			return models.Question{ID: q.id, Text: text}
		}
	}
	return models.Question{ID: index + 1, Text: text}
}

func (q RawQuestion) hasID() bool {
	return (q.shape == shapeCanonical || q.shape == shapeLabelled) && q.id > 0
}

// Questions converts a submitted list into canonical questions with ids.
func Questions(raw []RawQuestion) []models.Question {
	if len(raw) == 0 {
		return []models.Question{}
	}
	out := make([]models.Question, len(raw))
	explicit := make(map[int]struct{}, len(raw))
	for i, q := range raw {
		out[i] = q.Canonical(i)
		if q.hasID() {
			explicit[q.id] = struct{}{}
		}
	}
	// A positional id loses to an explicit one and is renumbered.
	for i, q := range raw {
		if q.hasID() {
			continue
		}
		if _, taken := explicit[out[i].ID]; taken {
			out[i].ID = 0
		}
	}
	assignIDs(out, func(q *models.Question) *int { return &q.ID })
	return out
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func intField(fields map[string]json.RawMessage, key string) int {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) || f < 1 {
		return 0
	}
	return int(f)
}
