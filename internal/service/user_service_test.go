package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
)

type mockUserRepo struct {
	users           map[string]*models.User
	departments     []string
	skills          []string
	departmentCalls int
	updated         *models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.updated = user
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) ListDepartments(ctx context.Context) ([]string, error) {
	m.departmentCalls++
	return m.departments, nil
}

func (m *mockUserRepo) ListSkills(ctx context.Context) ([]string, error) {
	return m.skills, nil
}

type memoryCache struct {
	entries     map[string][]string
	invalidated []string
	getErr      error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]string)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*[]string)) = v
	return true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.entries[key] = value.([]string)
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	c.entries = make(map[string][]string)
	return nil
}

func TestUserServiceUpdateProfile(t *testing.T) {
	year := models.YearJunior
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com", Role: models.RoleStudent, Department: "CS", Year: &year},
	}}
	cache := newMemoryCache()
	svc := NewUserService(repo, cache, nil, zap.NewNop(), time.Minute)

	name := "  Ada Lovelace "
	bio := "<b>Loves</b> engines"
	gpa := dto.Number(3.9)
	user, err := svc.UpdateProfile(context.Background(), "u1", dto.UpdateProfileRequest{
		Name:   &name,
		Bio:    &bio,
		Skills: []string{"Go", "SQL"},
		GPA:    &gpa,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "Loves engines", *user.Bio)
	assert.Equal(t, []string{"Go", "SQL"}, []string(user.Skills))
	require.NotNil(t, user.GPA)
	assert.InDelta(t, 3.9, *user.GPA, 0.0001)
	assert.Equal(t, &year, user.Year)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, []string{"directory:*"}, cache.invalidated)
}

func TestUserServiceUpdateProfileKeepsCacheWhenSkillsUntouched(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Name: "Ada"}}}
	cache := newMemoryCache()
	svc := NewUserService(repo, cache, nil, zap.NewNop(), time.Minute)

	name := "Ada L"
	_, err := svc.UpdateProfile(context.Background(), "u1", dto.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Empty(t, cache.invalidated)
}

func TestUserServiceProfileNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, nil, nil, zap.NewNop(), time.Minute)

	_, err := svc.Profile(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateProfileValidation(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := NewUserService(repo, nil, nil, zap.NewNop(), time.Minute)

	gpa := dto.Number(4.5)
	_, err := svc.UpdateProfile(context.Background(), "u1", dto.UpdateProfileRequest{GPA: &gpa})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "gpa", appErr.Details[0].Field)
	assert.Nil(t, repo.updated)
}

func TestUserServiceDepartmentsCached(t *testing.T) {
	repo := &mockUserRepo{departments: []string{"Biology", "Physics"}}
	cache := newMemoryCache()
	svc := NewUserService(repo, cache, nil, zap.NewNop(), time.Minute)

	first, err := svc.Departments(context.Background())
	require.NoError(t, err)
	second, err := svc.Departments(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.departmentCalls)
	assert.Equal(t, []string{"Biology", "Physics"}, cache.entries[departmentsCacheKey])
}

func TestUserServiceDepartmentsCacheFailureFallsBack(t *testing.T) {
	repo := &mockUserRepo{departments: []string{"Biology"}}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	svc := NewUserService(repo, cache, nil, zap.NewNop(), time.Minute)

	got, err := svc.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology"}, got)
	assert.Equal(t, 1, repo.departmentCalls)
}
