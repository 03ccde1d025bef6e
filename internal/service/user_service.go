package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/research-match-api/internal/dto"
	"github.com/noah-isme/research-match-api/internal/models"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/sanitize"
)

const (
	directoryCachePrefix = "directory:"
	departmentsCacheKey  = directoryCachePrefix + "departments"
	skillsCacheKey       = directoryCachePrefix + "skills"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	ListDepartments(ctx context.Context) ([]string, error)
	ListSkills(ctx context.Context) ([]string, error)
}

type directoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// UserService manages the caller's own profile and the public directory
// listings used by search filters.
type UserService struct {
	repo      userRepository
	cache     directoryCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewUserService constructs a UserService. cache may be nil.
func NewUserService(repo userRepository, cache directoryCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// Profile returns the user with id.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return user, nil
}

// UpdateProfile applies the present fields of req to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req dto.UpdateProfileRequest) (*models.User, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	req.Bio = sanitize.TextPtr(req.Bio)
	if err := validate(s.validator, req, "invalid profile payload"); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Skills != nil {
		user.Skills = cleanList(req.Skills)
	}
	if req.Interests != nil {
		user.Interests = cleanList(req.Interests)
	}
	if req.GPA != nil {
		user.GPA = req.GPA.Float64()
	}
	if req.Year != nil {
		user.Year = req.Year
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	if req.Skills != nil {
		s.InvalidateDirectory(ctx)
	}
	return user, nil
}

// Departments lists distinct user departments.
func (s *UserService) Departments(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, departmentsCacheKey, "failed to list departments", s.repo.ListDepartments)
}

// Skills lists distinct skills across user profiles.
func (s *UserService) Skills(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, skillsCacheKey, "failed to list skills", s.repo.ListSkills)
}

// InvalidateDirectory drops cached directory listings. Failures are logged;
// entries expire on their own.
func (s *UserService) InvalidateDirectory(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, directoryCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate directory cache", zap.Error(err))
	}
}

func (s *UserService) cachedList(ctx context.Context, key, failure string, load func(context.Context) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		var cached []string
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	values, err := load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failure)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, values, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache directory listing", zap.String("key", key), zap.Error(err))
		}
	}
	return values, nil
}
