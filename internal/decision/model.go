package decision

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// DefaultRating stands in for any rating that was never entered.
	// A missing rating means "unknown/average", not "worst".
	DefaultRating = 2.5

	// DefaultImportance is assigned to newly added criteria.
	DefaultImportance = 3

	MinRating     = 0.0
	MaxRating     = 5.0
	MinImportance = 1
	MaxImportance = 5
)

var (
	ErrNoOptions            = errors.New("decision has no options")
	ErrNoCriteria           = errors.New("decision has no criteria")
	ErrUnknownOption        = errors.New("unknown option")
	ErrUnknownCriterion     = errors.New("unknown criterion")
	ErrRatingOutOfRange     = errors.New("rating out of range")
	ErrImportanceOutOfRange = errors.New("importance out of range")
	ErrDuplicateOptionID    = errors.New("duplicate option id")
	ErrDuplicateCriterionID = errors.New("duplicate criterion id")
)

type Option struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Criterion struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Importance  int    `json:"importance" yaml:"importance"`
}

// RatingKey identifies one (option, criterion) cell.
type RatingKey struct {
	OptionID    int
	CriterionID int
}

// Model is the in-memory decision: options, criteria and the ratings grid.
// Normalized weights are not stored; they are derived from criterion
// importances every time they are needed.
type Model struct {
	Title       string
	Description string

	options  []Option
	criteria []Criterion
	ratings  map[RatingKey]float64

	nextOptionID    int
	nextCriterionID int
}

func NewModel(title, description string) *Model {
	return &Model{
		Title:           title,
		Description:     description,
		ratings:         make(map[RatingKey]float64),
		nextOptionID:    1,
		nextCriterionID: 1,
	}
}

// Options returns a copy of the options in insertion order.
func (m *Model) Options() []Option {
	out := make([]Option, len(m.options))
	copy(out, m.options)
	return out
}

// Criteria returns a copy of the criteria in insertion order.
func (m *Model) Criteria() []Criterion {
	out := make([]Criterion, len(m.criteria))
	copy(out, m.criteria)
	return out
}

func (m *Model) Option(id int) (Option, bool) {
	for _, o := range m.options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

func (m *Model) Criterion(id int) (Criterion, bool) {
	for _, c := range m.criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}

// AddOption appends a new option with a freshly allocated id.
func (m *Model) AddOption(name, description string) Option {
	o := Option{ID: m.nextOptionID, Name: name, Description: description}
	m.nextOptionID++
	m.options = append(m.options, o)
	return o
}

// PutOption inserts an option with a caller-chosen id, as done when
// rehydrating an exported document.
func (m *Model) PutOption(o Option) error {
	if _, ok := m.Option(o.ID); ok {
		return fmt.Errorf("%w: %d", ErrDuplicateOptionID, o.ID)
	}
	m.options = append(m.options, o)
	if o.ID >= m.nextOptionID {
		m.nextOptionID = o.ID + 1
	}
	return nil
}

// RemoveOption deletes the option and every rating keyed to it.
func (m *Model) RemoveOption(id int) bool {
	idx := -1
	for i, o := range m.options {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.options = append(m.options[:idx], m.options[idx+1:]...)
	for k := range m.ratings {
		if k.OptionID == id {
			delete(m.ratings, k)
		}
	}
	return true
}

// AddCriterion appends a new criterion at DefaultImportance.
func (m *Model) AddCriterion(name, description string) Criterion {
	c := Criterion{ID: m.nextCriterionID, Name: name, Description: description, Importance: DefaultImportance}
	m.nextCriterionID++
	m.criteria = append(m.criteria, c)
	return c
}

// PutCriterion inserts a criterion with a caller-chosen id. A zero
// importance is replaced by DefaultImportance.
func (m *Model) PutCriterion(c Criterion) error {
	if _, ok := m.Criterion(c.ID); ok {
		return fmt.Errorf("%w: %d", ErrDuplicateCriterionID, c.ID)
	}
	if c.Importance == 0 {
		c.Importance = DefaultImportance
	}
	if c.Importance < MinImportance || c.Importance > MaxImportance {
		return fmt.Errorf("%w: criterion %d importance %d", ErrImportanceOutOfRange, c.ID, c.Importance)
	}
	m.criteria = append(m.criteria, c)
	if c.ID >= m.nextCriterionID {
		m.nextCriterionID = c.ID + 1
	}
	return nil
}

// RemoveCriterion deletes the criterion and every rating keyed to it.
// Weights renormalize on the next derivation since they are a pure
// function of the remaining importances.
func (m *Model) RemoveCriterion(id int) bool {
	idx := -1
	for i, c := range m.criteria {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.criteria = append(m.criteria[:idx], m.criteria[idx+1:]...)
	for k := range m.ratings {
		if k.CriterionID == id {
			delete(m.ratings, k)
		}
	}
	return true
}

func (m *Model) SetImportance(criterionID, importance int) error {
	if importance < MinImportance || importance > MaxImportance {
		return fmt.Errorf("%w: %d", ErrImportanceOutOfRange, importance)
	}
	for i := range m.criteria {
		if m.criteria[i].ID == criterionID {
			m.criteria[i].Importance = importance
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownCriterion, criterionID)
}

// Importances returns criterionID -> importance for all live criteria.
func (m *Model) Importances() map[int]int {
	out := make(map[int]int, len(m.criteria))
	for _, c := range m.criteria {
		out[c.ID] = c.Importance
	}
	return out
}

// SetRating stores a rating quantized to 0.1. Both ids must be live.
func (m *Model) SetRating(optionID, criterionID int, value float64) error {
	if _, ok := m.Option(optionID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOption, optionID)
	}
	if _, ok := m.Criterion(criterionID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCriterion, criterionID)
	}
	if math.IsNaN(value) || value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: %v", ErrRatingOutOfRange, value)
	}
	m.ratings[RatingKey{OptionID: optionID, CriterionID: criterionID}] = QuantizeRating(value)
	return nil
}

// ClearRating removes an explicit rating so the default applies again.
func (m *Model) ClearRating(optionID, criterionID int) {
	delete(m.ratings, RatingKey{OptionID: optionID, CriterionID: criterionID})
}

// Rating returns the stored rating, or DefaultRating when absent.
func (m *Model) Rating(optionID, criterionID int) float64 {
	if v, ok := m.ratings[RatingKey{OptionID: optionID, CriterionID: criterionID}]; ok {
		return v
	}
	return DefaultRating
}

// HasRating reports whether an explicit rating exists for the cell.
func (m *Model) HasRating(optionID, criterionID int) bool {
	_, ok := m.ratings[RatingKey{OptionID: optionID, CriterionID: criterionID}]
	return ok
}

// Ratings returns a copy of the explicit ratings.
func (m *Model) Ratings() map[RatingKey]float64 {
	out := make(map[RatingKey]float64, len(m.ratings))
	for k, v := range m.ratings {
		out[k] = v
	}
	return out
}

// PruneOrphans drops ratings referencing options or criteria that no
// longer exist and returns how many were removed.
func (m *Model) PruneOrphans() int {
	liveOpts := make(map[int]bool, len(m.options))
	for _, o := range m.options {
		liveOpts[o.ID] = true
	}
	liveCrit := make(map[int]bool, len(m.criteria))
	for _, c := range m.criteria {
		liveCrit[c.ID] = true
	}
	removed := 0
	for k := range m.ratings {
		if !liveOpts[k.OptionID] || !liveCrit[k.CriterionID] {
			delete(m.ratings, k)
			removed++
		}
	}
	return removed
}

// Validate reports caller precondition violations. Upstream collaborators
// enforce the stricter "at least two" rules; the engine only needs one of each.
func (m *Model) Validate() error {
	if len(m.options) == 0 {
		return ErrNoOptions
	}
	if len(m.criteria) == 0 {
		return ErrNoCriteria
	}
	return nil
}

// Clone returns a deep, independent copy.
func (m *Model) Clone() *Model {
	c := &Model{
		Title:           m.Title,
		Description:     m.Description,
		options:         m.Options(),
		criteria:        m.Criteria(),
		ratings:         m.Ratings(),
		nextOptionID:    m.nextOptionID,
		nextCriterionID: m.nextCriterionID,
	}
	return c
}

// sortedRatingKeys gives ratings a stable iteration order for export.
func (m *Model) sortedRatingKeys() []RatingKey {
	keys := make([]RatingKey, 0, len(m.ratings))
	for k := range m.ratings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].OptionID != keys[j].OptionID {
			return keys[i].OptionID < keys[j].OptionID
		}
		return keys[i].CriterionID < keys[j].CriterionID
	})
	return keys
}

// QuantizeRating rounds a rating to the 0.1 storage precision.
func QuantizeRating(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
