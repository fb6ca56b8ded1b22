package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reginald-press/reginald/internal/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	noOpLogger = zap.NewNop()

	// ErrEmailTaken indicates a registration against an existing address.
	ErrEmailTaken = errors.New("profiles: email already registered")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("profiles: invalid email or password")
	// ErrNotFound indicates the profile does not exist.
	ErrNotFound = errors.New("profiles: not found")
	// ErrEmailRequired indicates a registration without an address.
	ErrEmailRequired = errors.New("profiles: email is required")
)

// IDProvider issues identifiers for new profiles.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies for the profile service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service manages accounts: registration, credential checks, and the
// self-service reader-to-author upgrade.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("profiles: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("profiles: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, idProvider: cfg.IDProvider, logger: logger}, nil
}

// Register creates a reader profile with a hashed password.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Profile{}, ErrEmailRequired
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Profile{}, err
	}
	id, err := s.idProvider.NewID()
	if err != nil {
		return Profile{}, err
	}

	var existing Profile
	err = s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return Profile{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("profile lookup failed", zap.Error(err))
		return Profile{}, err
	}

	profile := Profile{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         RoleReader,
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		s.logger.Error("profile create failed", zap.Error(err))
		return Profile{}, err
	}
	return profile, nil
}

// Authenticate checks credentials and returns the matching profile. Both a
// missing account and a wrong password map to the same error so the response
// does not reveal which half failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("profile lookup failed", zap.Error(err))
		return Profile{}, err
	}
	if !auth.VerifyPassword(profile.PasswordHash, password) {
		return Profile{}, ErrInvalidCredentials
	}
	return profile, nil
}

// Get loads a profile by id.
func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("profile lookup failed", zap.String("profile_id", id), zap.Error(err))
		return Profile{}, err
	}
	return profile, nil
}

// Update rewrites the public persona fields on the owning profile.
func (s *Service) Update(ctx context.Context, id, displayName, bio string) (Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	profile.DisplayName = strings.TrimSpace(displayName)
	profile.Bio = strings.TrimSpace(bio)
	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		s.logger.Error("profile update failed", zap.String("profile_id", id), zap.Error(err))
		return Profile{}, err
	}
	return profile, nil
}

// ElevateToAuthor grants author access to the owning reader. There is no
// approval workflow; the gate is deliberately casual. Elevating an author
// again is a no-op.
func (s *Service) ElevateToAuthor(ctx context.Context, id string) (Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if profile.Role == RoleAuthor {
		return profile, nil
	}
	profile.Role = RoleAuthor
	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		s.logger.Error("profile elevation failed", zap.String("profile_id", id), zap.Error(err))
		return Profile{}, err
	}
	return profile, nil
}

// DisplayNames resolves ids to display names in one query, for projecting
// article lists without per-row lookups.
func (s *Service) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []Profile
	if err := s.db.WithContext(ctx).
		Select("id", "display_name").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		s.logger.Error("display name lookup failed", zap.Error(err))
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.DisplayName
	}
	return names, nil
}
