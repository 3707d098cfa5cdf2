// Package session holds the transient per-chat scratch state: accumulated
// parameters, an inference cache keyed by the full parameter snapshot, and
// the turn-by-turn history. Sessions live only in memory; the durable
// transcript is owned by the chat repository.
package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Required parameter slots that must be set before inference can run.
const (
	ParamA = "A"
	ParamB = "B"
)

var requiredParameters = []string{ParamA, ParamB}

// Role is the author of a history turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the in-memory history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PredictionRecord is an entry in the log of successful prediction runs.
type PredictionRecord struct {
	Task   string    `json:"task"`
	SMILES []string  `json:"smiles"`
	Result string    `json:"result"`
	At     time.Time `json:"timestamp"`
}

// CacheKey is the canonical encoding of a full parameter snapshot: a JSON
// array of [name, value] pairs sorted by name.
type CacheKey string

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Session is the scratch state of one chat. All methods are safe for
// concurrent use; a sequence of calls is not atomic.
type Session struct {
	mu sync.Mutex

	parameters          map[string]Value
	parameterTimestamps map[string]time.Time
	mlActivated         bool
	inferenceCache      map[CacheKey]string
	history             []Turn
	predictions         []PredictionRecord

	now Clock
}

// New returns an empty Session. A nil clock defaults to time.Now.
func New(clock Clock) *Session {
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		parameters:          make(map[string]Value),
		parameterTimestamps: make(map[string]time.Time),
		inferenceCache:      make(map[CacheKey]string),
		now:                 clock,
	}
}

// UpdateParameter sets name to v and stamps it with the current time.
func (s *Session) UpdateParameter(name string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parameters[name] = v
	s.parameterTimestamps[name] = s.now()
}

// Parameter returns the value stored under name.
func (s *Session) Parameter(name string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.parameters[name]
	return v, ok
}

// Parameters returns a copy of the parameter map.
func (s *Session) Parameters() map[string]Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Value, len(s.parameters))
	for k, v := range s.parameters {
		out[k] = v
	}
	return out
}

// SetMLActivation records whether prediction mode is on.
func (s *Session) SetMLActivation(activated bool) {
	s.mu.Lock()
	s.mlActivated = activated
	s.mu.Unlock()
}

// MLActivated reports whether prediction mode is on.
func (s *Session) MLActivated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mlActivated
}

// CanRunInference is true when ml mode is on and every required slot holds a
// non-null value.
func (s *Session) CanRunInference() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mlActivated && len(s.missingLocked()) == 0
}

// MissingRequiredParameters lists the unset or null required slots, in slot order.
func (s *Session) MissingRequiredParameters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked()
}

func (s *Session) missingLocked() []string {
	missing := []string{}
	for _, name := range requiredParameters {
		if v, ok := s.parameters[name]; !ok || v.IsNull() {
			missing = append(missing, name)
		}
	}
	return missing
}

// CacheKey derives the key for the current full parameter set.
func (s *Session) CacheKey() CacheKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheKeyLocked()
}

func (s *Session) cacheKeyLocked() CacheKey {
	names := make([]string, 0, len(s.parameters))
	for name := range s.parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([][2]interface{}, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, [2]interface{}{name, keyValue(s.parameters[name])})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return CacheKey(fmt.Sprintf("%q", pairs))
	}
	return CacheKey(data)
}

// keyValue wraps non-finite numbers in an object so their key never equals
// the key of the string "NaN" or "+Inf".
func keyValue(v Value) interface{} {
	if v.kind == KindNumber && !v.finite() {
		return map[string]string{"number": v.String()}
	}
	return v
}

// CachedResult returns the result cached for the current parameter set.
func (s *Session) CachedResult() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.inferenceCache[s.cacheKeyLocked()]
	return r, ok
}

// CacheResult stores result under the current parameter set. Entries for
// earlier snapshots are kept but become unreachable.
func (s *Session) CacheResult(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inferenceCache[s.cacheKeyLocked()] = result
}

// AddMessage appends a turn to the history.
func (s *Session) AddMessage(t Turn) {
	s.mu.Lock()
	s.history = append(s.history, t)
	s.mu.Unlock()
}

// History returns a copy of the turns so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// RecordPrediction appends to the prediction log.
func (s *Session) RecordPrediction(r PredictionRecord) {
	s.mu.Lock()
	if r.At.IsZero() {
		r.At = s.now()
	}
	s.predictions = append(s.predictions, r)
	s.mu.Unlock()
}

// Predictions returns a copy of the prediction log.
func (s *Session) Predictions() []PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PredictionRecord, len(s.predictions))
	copy(out, s.predictions)
	return out
}

// LastUpdate is the latest parameter timestamp, or the zero time when no
// parameter has ever been set.
func (s *Session) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	for _, ts := range s.parameterTimestamps {
		if ts.After(last) {
			last = ts
		}
	}
	return last
}

//Personal.AI order the ending
