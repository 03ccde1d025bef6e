package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	clientmodel "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
)

type fakeCacheRepo struct {
	values   map[string]string
	ttls     map[string]time.Duration
	patterns []string
	getErr   error
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v
	return nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

func TestCacheServiceHitMissAndMetrics(t *testing.T) {
	repo := &fakeCacheRepo{values: map[string]string{}, ttls: map[string]time.Duration{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, CacheOptions{DefaultTTL: time.Minute}, zap.NewNop())

	var out string
	hit, err := svc.Get(context.Background(), "directory:skills", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "directory:skills", "go", 0))
	assert.Equal(t, time.Minute, repo.ttls["directory:skills"])

	hit, err = svc.Get(context.Background(), "directory:skills", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "go", out)

	assert.Equal(t, float64(1), counterValue(t, metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), counterValue(t, metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceNamespacesKeys(t *testing.T) {
	repo := &fakeCacheRepo{values: map[string]string{}, ttls: map[string]time.Duration{}}
	svc := NewCacheService(repo, nil, CacheOptions{Namespace: "staging"}, nil)

	require.NoError(t, svc.Set(context.Background(), "directory:departments", "cs", time.Second))
	assert.Contains(t, repo.values, "staging:directory:departments")

	var out string
	hit, err := svc.Get(context.Background(), "directory:departments", &out)
	require.NoError(t, err)
	assert.True(t, hit)

	require.NoError(t, svc.Invalidate(context.Background(), "directory:*"))
	assert.Equal(t, []string{"staging:directory:*"}, repo.patterns)
}

func TestCacheServiceBackendError(t *testing.T) {
	repo := &fakeCacheRepo{getErr: errors.New("connection refused")}
	svc := NewCacheService(repo, nil, CacheOptions{}, nil)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(nil, nil, CacheOptions{}, nil)

	assert.False(t, svc.Enabled())
	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, svc.Invalidate(context.Background(), "k*"))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m clientmodel.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
