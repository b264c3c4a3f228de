package whatif

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// DefaultDebounce is the quiet period before a weight change is evaluated.
const DefaultDebounce = 150 * time.Millisecond

var (
	ErrInvalidWeight   = errors.New("weight must be a finite, non-negative number")
	ErrSessionNotFound = errors.New("what-if session not found")
	ErrSessionClosed   = errors.New("what-if session closed")
)

// State is the debounce state of a session.
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateEvaluating State = "evaluating"
)

// Evaluation is the cached result for one weight vector. Cached evaluations
// are shared and must not be modified.
type Evaluation struct {
	Fingerprint string                 `json:"fingerprint"`
	Weights     scoring.Weights        `json:"weights"`
	Results     []scoring.RankedResult `json:"results"`
	WinnerIDs   []int                  `json:"winner_ids"`
	Winners     []string               `json:"winners"`
}

// Outcome is an Evaluation as seen by one session at one point in time.
type Outcome struct {
	Evaluation
	SessionID       string    `json:"session_id"`
	PreviousWinners []string  `json:"previous_winners"`
	WinnerChanged   bool      `json:"winner_changed"`
	FromCache       bool      `json:"from_cache"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// Options configures a Session.
type Options struct {
	Debounce      time.Duration
	CacheCapacity int
	// OnEvaluate runs after every evaluation, outside the session lock.
	OnEvaluate func(Outcome)
}

// Session explores weight changes on an isolated copy of a decision. Weight
// changes are stored immediately and evaluated once no further change has
// arrived for the debounce period.
type Session struct {
	id string

	mu               sync.Mutex
	committed        *decision.Model
	committedWeights scoring.Weights
	model            *decision.Model
	raw              map[int]float64
	cache            *fifoCache
	state            State
	timer            *time.Timer
	gen              uint64
	last             Outcome
	lastActive       time.Time
	closed           bool

	debounce   time.Duration
	onEvaluate func(Outcome)
}

// NewSession deep-copies m and starts from committed, which is normally the
// model's normalized weights. A nil committed vector is derived from the
// model's importances. The baseline is evaluated before NewSession returns.
func NewSession(id string, m *decision.Model, committed scoring.Weights, opts Options) (*Session, error) {
	if len(m.Options()) == 0 {
		return nil, decision.ErrNoOptions
	}
	if len(m.Criteria()) == 0 {
		return nil, decision.ErrNoCriteria
	}
	if committed == nil {
		committed = scoring.Normalize(m.Importances())
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	s := &Session{
		id:               id,
		committed:        m.Clone(),
		committedWeights: liveWeights(m, committed),
		cache:            newFIFOCache(opts.CacheCapacity),
		debounce:         opts.Debounce,
		onEvaluate:       opts.OnEvaluate,
	}
	s.mu.Lock()
	s.resetWorkingLocked()
	s.last = s.evaluateLocked()
	s.last.WinnerChanged = false
	s.mu.Unlock()
	return s, nil
}

func (s *Session) ID() string { return s.id }

// SetWeight stores a raw weight for one criterion and re-arms the debounce
// timer.
func (s *Session) SetWeight(criterionID int, value float64) error {
	return s.SetWeights(map[int]float64{criterionID: value})
}

// SetWeights applies several raw weights as one change. Either every entry
// is applied or none is.
func (s *Session) SetWeights(values map[int]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	for id, v := range values {
		if _, ok := s.model.Criterion(id); !ok {
			return fmt.Errorf("%w: %d", decision.ErrUnknownCriterion, id)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: criterion %d", ErrInvalidWeight, id)
		}
	}
	for id, v := range values {
		s.raw[id] = v
	}
	s.lastActive = time.Now()
	s.scheduleLocked()
	return nil
}

// RawWeights returns the working vector as entered, before normalization.
func (s *Session) RawWeights() map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRaw(s.raw)
}

// NormalizedWeights returns the working vector rescaled to sum to 100.
func (s *Session) NormalizedWeights() scoring.Weights {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scoring.NormalizeRaw(s.raw)
}

// State reports the debounce state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the most recent evaluation, which may predate pending
// weight changes.
func (s *Session) Result() (Outcome, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return s.last, s.state
}

// Flush evaluates a pending change immediately instead of waiting for the
// timer. With nothing pending it returns the last evaluation.
func (s *Session) Flush() (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{}, ErrSessionClosed
	}
	s.lastActive = time.Now()
	if s.state != StatePending {
		out := s.last
		s.mu.Unlock()
		return out, nil
	}
	s.stopTimerLocked()
	s.gen++
	out := s.runLocked()
	hook := s.onEvaluate
	s.mu.Unlock()

	if hook != nil {
		hook(out)
	}
	return out, nil
}

// Reset discards the working copy and the cache entry for its current
// vector, then re-evaluates from the committed model.
func (s *Session) Reset() (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{}, ErrSessionClosed
	}
	s.stopTimerLocked()
	s.gen++
	s.cache.remove(scoring.Weights(s.raw).Fingerprint())
	s.resetWorkingLocked()
	s.lastActive = time.Now()
	out := s.runLocked()
	hook := s.onEvaluate
	s.mu.Unlock()

	if hook != nil {
		hook(out)
	}
	return out, nil
}

// CacheLen reports how many evaluations are cached.
func (s *Session) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.len()
}

// LastActive is the time of the last caller interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops the timer. A closed session rejects further changes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.gen++
	s.closed = true
	s.state = StateIdle
}

func (s *Session) scheduleLocked() {
	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.state = StatePending
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

// fire runs on the timer goroutine. A stale generation means the timer was
// re-armed, flushed, reset or closed after it was scheduled.
func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.state != StatePending {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	out := s.runLocked()
	hook := s.onEvaluate
	s.mu.Unlock()

	if hook != nil {
		hook(out)
	}
}

func (s *Session) runLocked() Outcome {
	s.state = StateEvaluating
	out := s.evaluateLocked()
	s.last = out
	s.state = StateIdle
	return out
}

func (s *Session) evaluateLocked() Outcome {
	key := scoring.Weights(s.raw).Fingerprint()
	out := Outcome{
		SessionID:       s.id,
		PreviousWinners: s.last.Winners,
		EvaluatedAt:     time.Now().UTC(),
	}
	if ev, ok := s.cache.get(key); ok {
		out.Evaluation = ev
		out.FromCache = true
	} else {
		w := scoring.NormalizeRaw(s.raw)
		ranked := scoring.Rank(scoring.Score(s.model, w))
		ev := Evaluation{Fingerprint: key, Weights: w, Results: ranked}
		for _, r := range scoring.Winners(ranked) {
			ev.WinnerIDs = append(ev.WinnerIDs, r.Option.ID)
			ev.Winners = append(ev.Winners, r.Option.Name)
		}
		s.cache.put(key, ev)
		out.Evaluation = ev
	}
	out.WinnerChanged = !sameIDs(s.last.WinnerIDs, out.WinnerIDs)
	return out
}

func (s *Session) resetWorkingLocked() {
	s.model = s.committed.Clone()
	s.raw = make(map[int]float64, len(s.committedWeights))
	for id, w := range s.committedWeights {
		s.raw[id] = w
	}
	s.state = StateIdle
	s.lastActive = time.Now()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// liveWeights restricts w to the model's criteria. Criteria missing from w
// start at zero.
func liveWeights(m *decision.Model, w scoring.Weights) scoring.Weights {
	out := make(scoring.Weights, len(w))
	for _, c := range m.Criteria() {
		out[c.ID] = w.Get(c.ID)
	}
	return out
}

func copyRaw(raw map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(raw))
	for id, v := range raw {
		out[id] = v
	}
	return out
}

func sameIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
