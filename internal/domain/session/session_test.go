package session

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestSession_NewIsEmpty(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.Parameters())
	assert.Empty(t, s.History())
	assert.False(t, s.MLActivated())
	assert.False(t, s.CanRunInference())
	assert.True(t, s.LastUpdate().IsZero())
	assert.Equal(t, []string{ParamA, ParamB}, s.MissingRequiredParameters())
}

func TestSession_UpdateParameterStampsTime(t *testing.T) {
	clock := newFakeClock()
	s := New(clock.Now)

	s.UpdateParameter(ParamA, String("MKT"))
	first := clock.Now()
	clock.Advance(time.Minute)
	s.UpdateParameter(ParamB, String("CCO"))

	v, ok := s.Parameter(ParamA)
	require.True(t, ok)
	assert.True(t, v.Equal(String("MKT")))
	assert.Equal(t, first.Add(time.Minute), s.LastUpdate())
}

func TestSession_CanRunInference(t *testing.T) {
	s := New(nil)
	s.UpdateParameter(ParamA, String("x"))
	s.UpdateParameter(ParamB, String("y"))
	assert.False(t, s.CanRunInference(), "ml mode off")

	s.SetMLActivation(true)
	assert.True(t, s.CanRunInference())
	assert.Empty(t, s.MissingRequiredParameters())

	s.UpdateParameter(ParamB, Null())
	assert.False(t, s.CanRunInference())
	assert.Equal(t, []string{ParamB}, s.MissingRequiredParameters())
}

func TestSession_CacheKeyIsOrderIndependent(t *testing.T) {
	a := New(nil)
	a.UpdateParameter("B", Number(2))
	a.UpdateParameter("A", String("x"))

	b := New(nil)
	b.UpdateParameter("A", String("x"))
	b.UpdateParameter("B", Number(2))

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, CacheKey(`[["A","x"],["B",2]]`), a.CacheKey())
}

func TestSession_CacheKeyWithNonFiniteNumbers(t *testing.T) {
	key := func(a, b Value) CacheKey {
		s := New(nil)
		s.UpdateParameter(ParamA, a)
		s.UpdateParameter(ParamB, b)
		return s.CacheKey()
	}

	inf2 := key(Number(math.Inf(1)), Number(2))
	assert.NotEmpty(t, inf2)
	assert.NotEqual(t, inf2, key(Number(math.Inf(1)), Number(3)))
	assert.NotEqual(t, inf2, key(Number(math.NaN()), String("other")))
	assert.NotEqual(t, key(Number(math.NaN()), Number(2)), key(String("NaN"), Number(2)))
	assert.Equal(t, CacheKey(`[["A",{"number":"+Inf"}],["B",2]]`), inf2)
}

func TestSession_CachedResultNotSharedAcrossNonFiniteSets(t *testing.T) {
	s := New(nil)
	s.UpdateParameter(ParamA, Number(math.Inf(1)))
	s.UpdateParameter(ParamB, Number(2))
	s.CacheResult("result-for-inf")

	s.UpdateParameter(ParamA, Number(math.NaN()))
	_, ok := s.CachedResult()
	assert.False(t, ok)
}

func TestSession_CacheFollowsParameters(t *testing.T) {
	s := New(nil)
	s.UpdateParameter(ParamA, String("x"))
	s.CacheResult("r1")

	r, ok := s.CachedResult()
	require.True(t, ok)
	assert.Equal(t, "r1", r)

	s.UpdateParameter(ParamA, String("y"))
	_, ok = s.CachedResult()
	assert.False(t, ok)

	s.UpdateParameter(ParamA, String("x"))
	r, ok = s.CachedResult()
	require.True(t, ok)
	assert.Equal(t, "r1", r)
}

func TestSession_HistoryIsCopied(t *testing.T) {
	s := New(nil)
	s.AddMessage(Turn{Role: RoleUser, Content: "hi"})
	h := s.History()
	h[0].Content = "changed"
	assert.Equal(t, "hi", s.History()[0].Content)
}

func TestSession_RecordPredictionStampsTime(t *testing.T) {
	clock := newFakeClock()
	s := New(clock.Now)
	s.RecordPrediction(PredictionRecord{Task: "ADMET Prediction", SMILES: []string{"CCO"}, Result: "ok"})

	preds := s.Predictions()
	require.Len(t, preds, 1)
	assert.Equal(t, clock.Now(), preds[0].At)
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.UpdateParameter(ParamA, Number(float64(i)))
			s.AddMessage(Turn{Role: RoleUser, Content: "m"})
			_ = s.CacheKey()
			_ = s.CanRunInference()
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.History(), 50)
}

//Personal.AI order the ending
