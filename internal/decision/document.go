package decision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentVersion is written into every exported document.
const DocumentVersion = "1.0"

var ErrMalformedRatingKey = errors.New("malformed rating key")

// Document is the export/import schema shared with the export collaborators.
// Weights holds raw importances keyed by criterion id; Ratings is keyed by
// "<optionId>-<criterionId>".
type Document struct {
	Title             string             `json:"title" yaml:"title"`
	Description       string             `json:"description" yaml:"description"`
	Timestamp         time.Time          `json:"timestamp" yaml:"timestamp"`
	Options           []Option           `json:"options" yaml:"options"`
	Criteria          []Criterion        `json:"criteria" yaml:"criteria"`
	Weights           map[string]int     `json:"weights" yaml:"weights"`
	NormalizedWeights map[string]float64 `json:"normalizedWeights,omitempty" yaml:"normalizedWeights,omitempty"`
	Ratings           map[string]float64 `json:"ratings" yaml:"ratings"`
	Version           string             `json:"version" yaml:"version"`
}

// RatingKeyString formats a rating key the way documents store it.
func RatingKeyString(optionID, criterionID int) string {
	return strconv.Itoa(optionID) + "-" + strconv.Itoa(criterionID)
}

// ParseRatingKey parses "<optionId>-<criterionId>".
func ParseRatingKey(s string) (RatingKey, error) {
	left, right, ok := strings.Cut(s, "-")
	if !ok {
		return RatingKey{}, fmt.Errorf("%w: %q", ErrMalformedRatingKey, s)
	}
	o, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return RatingKey{}, fmt.Errorf("%w: %q", ErrMalformedRatingKey, s)
	}
	c, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return RatingKey{}, fmt.Errorf("%w: %q", ErrMalformedRatingKey, s)
	}
	return RatingKey{OptionID: o, CriterionID: c}, nil
}

// NewDocument snapshots the model. normalized may be nil; callers that
// have derived weights pass them so renderers need not recompute.
func NewDocument(m *Model, normalized map[int]float64, at time.Time) Document {
	doc := Document{
		Title:       m.Title,
		Description: m.Description,
		Timestamp:   at.UTC(),
		Options:     m.Options(),
		Criteria:    m.Criteria(),
		Weights:     make(map[string]int, len(m.criteria)),
		Ratings:     make(map[string]float64, len(m.ratings)),
		Version:     DocumentVersion,
	}
	for _, c := range m.criteria {
		doc.Weights[strconv.Itoa(c.ID)] = c.Importance
	}
	if normalized != nil {
		doc.NormalizedWeights = make(map[string]float64, len(normalized))
		for id, w := range normalized {
			doc.NormalizedWeights[strconv.Itoa(id)] = w
		}
	}
	for _, k := range m.sortedRatingKeys() {
		doc.Ratings[RatingKeyString(k.OptionID, k.CriterionID)] = m.ratings[k]
	}
	return doc
}

// Model rehydrates the document. Importance comes from Weights when present,
// then from the criterion itself, then DefaultImportance. Ratings that
// reference unknown options or criteria are skipped.
func (d *Document) Model() (*Model, error) {
	m := NewModel(d.Title, d.Description)
	for _, o := range d.Options {
		if err := m.PutOption(o); err != nil {
			return nil, err
		}
	}
	for _, c := range d.Criteria {
		if imp, ok := d.Weights[strconv.Itoa(c.ID)]; ok {
			c.Importance = imp
		}
		if err := m.PutCriterion(c); err != nil {
			return nil, err
		}
	}
	for key, v := range d.Ratings {
		rk, err := ParseRatingKey(key)
		if err != nil {
			return nil, err
		}
		_, optOK := m.Option(rk.OptionID)
		_, critOK := m.Criterion(rk.CriterionID)
		if !optOK || !critOK {
			continue
		}
		if err := m.SetRating(rk.OptionID, rk.CriterionID, v); err != nil {
			return nil, fmt.Errorf("rating %s: %w", key, err)
		}
	}
	return m, nil
}

// Orphans lists rating and weight keys that reference missing entities.
func (d *Document) Orphans() []string {
	opts := make(map[int]bool, len(d.Options))
	for _, o := range d.Options {
		opts[o.ID] = true
	}
	crits := make(map[int]bool, len(d.Criteria))
	for _, c := range d.Criteria {
		crits[c.ID] = true
	}
	var out []string
	for key := range d.Ratings {
		rk, err := ParseRatingKey(key)
		if err != nil || !opts[rk.OptionID] || !crits[rk.CriterionID] {
			out = append(out, "ratings."+key)
		}
	}
	for key := range d.Weights {
		id, err := strconv.Atoi(key)
		if err != nil || !crits[id] {
			out = append(out, "weights."+key)
		}
	}
	return out
}

// NormalizedWeightsByID converts the stored normalized weights to integer
// keys. It returns nil when the document carries none.
func (d *Document) NormalizedWeightsByID() (map[int]float64, error) {
	if len(d.NormalizedWeights) == 0 {
		return nil, nil
	}
	out := make(map[int]float64, len(d.NormalizedWeights))
	for key, w := range d.NormalizedWeights {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("normalized weight key %q: %w", key, err)
		}
		out[id] = w
	}
	return out, nil
}

// ParseDocument decodes JSON or YAML. Input whose first non-space byte is
// '{' is treated as JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse json document: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml document: %w", err)
		}
	}
	if doc.Version == "" {
		doc.Version = DocumentVersion
	}
	return &doc, nil
}
