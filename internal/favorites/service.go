package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()

	// ErrMissingArticle indicates a ledger operation without an article reference.
	ErrMissingArticle = errors.New("favorites: article identifier is required")
	// ErrMissingUser indicates a toggle without an authenticated user.
	ErrMissingUser = errors.New("favorites: user identifier is required")
)

// Status is the viewer-facing summary of the ledger for one article: the
// aggregate count and whether the current viewer has an entry.
type Status struct {
	Count     int64 `json:"count"`
	Favorited bool  `json:"favorited"`
}

// ServiceConfig describes the dependencies for the favorite ledger.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service reads and toggles favorite ledger entries.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService validates dependencies and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("favorites: %w", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// StatusFor loads the ledger state for one (article, viewer) pair. The two
// reads are independent and issued concurrently; an anonymous viewer skips
// the membership read and always reports not-favorited.
func (s *Service) StatusFor(ctx context.Context, articleID, viewerID string) (Status, error) {
	if strings.TrimSpace(articleID) == "" {
		return Status{}, ErrMissingArticle
	}

	var status Status
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.db.WithContext(groupCtx).
			Model(&Favorite{}).
			Where("article_id = ?", articleID).
			Count(&status.Count).Error
	})
	if viewerID != "" {
		group.Go(func() error {
			var entries int64
			err := s.db.WithContext(groupCtx).
				Model(&Favorite{}).
				Where("article_id = ? AND user_id = ?", articleID, viewerID).
				Count(&entries).Error
			status.Favorited = entries > 0
			return err
		})
	}
	if err := group.Wait(); err != nil {
		s.logger.Error("favorite status load failed",
			zap.String("article_id", articleID), zap.Error(err))
		return Status{}, err
	}
	return status, nil
}

// Toggle flips the viewer's ledger entry for an article and returns the
// authoritative state: delete when present, insert when absent, recount, all
// inside one transaction. The caller reflects this response instead of
// trusting its optimistic flip, which is the reconciliation step the
// original UI lacked.
func (s *Service) Toggle(ctx context.Context, articleID, userID string) (Status, error) {
	if strings.TrimSpace(articleID) == "" {
		return Status{}, ErrMissingArticle
	}
	if strings.TrimSpace(userID) == "" {
		return Status{}, ErrMissingUser
	}

	var status Status
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Favorite
		err := tx.Where("article_id = ? AND user_id = ?", articleID, userID).
			Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := Favorite{ArticleID: articleID, UserID: userID}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			status.Favorited = true
		case err != nil:
			return err
		default:
			if err := tx.Delete(&Favorite{}, "article_id = ? AND user_id = ?", articleID, userID).Error; err != nil {
				return err
			}
			status.Favorited = false
		}

		return tx.Model(&Favorite{}).
			Where("article_id = ?", articleID).
			Count(&status.Count).Error
	})
	if txErr != nil {
		s.logger.Error("favorite toggle failed",
			zap.String("article_id", articleID),
			zap.String("user_id", userID),
			zap.Error(txErr))
		return Status{}, txErr
	}
	return status, nil
}

// CountFor returns the aggregate favorite count for an article.
func (s *Service) CountFor(ctx context.Context, articleID string) (int64, error) {
	if strings.TrimSpace(articleID) == "" {
		return 0, ErrMissingArticle
	}
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Favorite{}).
		Where("article_id = ?", articleID).
		Count(&count).Error; err != nil {
		s.logger.Error("favorite count failed",
			zap.String("article_id", articleID), zap.Error(err))
		return 0, err
	}
	return count, nil
}
