package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

type cachedPrediction struct {
	Task   string   `json:"task"`
	SMILES []string `json:"smiles"`
}

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientFromUniversal(db, logging.NewNopLogger())
	s.cache = NewRedisCache(s.client, logging.NewNopLogger(), WithPrefix("test:"), WithoutJitter())
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	val := cachedPrediction{Task: "admet", SMILES: []string{"CCO"}}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(data))

	var dest cachedPrediction
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	s.mock.ExpectGet("test:key1").RedisNil()

	var dest cachedPrediction
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:key1").SetErr(fmt.Errorf("connection reset"))

	var dest cachedPrediction
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.mock.ExpectGet("test:key1").SetVal("{not json")

	var dest cachedPrediction
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_ExactTTL() {
	data, _ := json.Marshal("hello")
	s.mock.ExpectSet("test:k", data, time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", "hello", time.Minute))
}

func (s *CacheTestSuite) TestDelete_Success() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
}

func (s *CacheTestSuite) TestDelete_NoKeys() {
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestExists_True() {
	s.mock.ExpectExists("test:k1").SetVal(1)

	exists, err := s.cache.Exists(context.Background(), "k1")
	s.NoError(err)
	s.True(exists)
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	val := cachedPrediction{Task: "affinity"}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(data))

	called := false
	var dest cachedPrediction
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(ctx context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})

	s.NoError(err)
	s.False(called)
	s.Equal(val, dest)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func newMiniredisCache(t *testing.T) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisCache(NewClientFromUniversal(rdb, nil), nil, WithPrefix("narcos:"))
}

func TestGetOrSet_MissLoadsAndStores(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	ctx := context.Background()

	var dest cachedPrediction
	err := cache.GetOrSet(ctx, "pred:1", &dest, time.Hour, func(context.Context) (interface{}, error) {
		return cachedPrediction{Task: "admet", SMILES: []string{"CCO"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "admet", dest.Task)

	assert.True(t, mr.Exists("narcos:pred:1"))
	ttl := mr.TTL("narcos:pred:1")
	assert.InDelta(t, float64(time.Hour), float64(ttl), float64(7*time.Minute))
}

func TestGetOrSet_LoaderErrorIsNotCached(t *testing.T) {
	mr, cache := newMiniredisCache(t)

	var dest cachedPrediction
	err := cache.GetOrSet(context.Background(), "pred:2", &dest, time.Hour, func(context.Context) (interface{}, error) {
		return nil, fmt.Errorf("scorer down")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("narcos:pred:2"))
}

func TestGetOrSet_ConcurrentCallersShareOneLoad(t *testing.T) {
	_, cache := newMiniredisCache(t)

	var loads int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out string
			assert.NoError(t, cache.GetOrSet(context.Background(), "shared", &out, time.Minute, loader))
			assert.Equal(t, "value", out)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&loads), int32(2))
}

func TestGetOrSet_BrokenCacheStillLoads(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	mr.Close()

	var out string
	err := cache.GetOrSet(context.Background(), "k", &out, time.Minute, func(context.Context) (interface{}, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", out)
}

func TestDeleteByPrefix(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "summary:c1:2", "a", time.Minute))
	require.NoError(t, cache.Set(ctx, "summary:c1:4", "b", time.Minute))
	require.NoError(t, cache.Set(ctx, "summary:c2:1", "c", time.Minute))

	n, err := cache.DeleteByPrefix(ctx, "summary:c1:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("narcos:summary:c2:1"))
}

//Personal.AI order the ending
