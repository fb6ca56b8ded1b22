package articles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reginald-press/reginald/internal/content"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()

	// ErrNotFound indicates the requested article does not exist (or is not
	// published when looked up through the public surface).
	ErrNotFound = errors.New("articles: not found")
	// ErrNotOwner indicates an author tried to mutate somebody else's article.
	ErrNotOwner = errors.New("articles: not the owning author")
	// ErrTitleRequired indicates a save without a usable title.
	ErrTitleRequired = errors.New("articles: title is required")
)

// ServiceError tags a failure with a dotted operation code for logs and
// stable API error bodies.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew    = "articles.service.new"
	opSave          = "articles.save"
	opGetForAuthor  = "articles.get_for_author"
	opListByAuthor  = "articles.list_by_author"
	opGetPublished  = "articles.get_published"
	opListPublished = "articles.list_published"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IDProvider issues identifiers for new article records.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies for the article service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns the article save contract and the published/author queries.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
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

// Draft is the editor form state submitted on save. Tags arrive as the raw
// comma-separated string; ContentJSON is the document tree as produced by
// the editor.
type Draft struct {
	ID       string
	Title    string
	Subtitle string
	Slug     string
	Excerpt  string
	CoverURL string
	Tags     string
	Status   string
	Settings StoredSettings
	Content  json.RawMessage
}

// Save turns the submitted form state into a complete persisted record:
// tags parsed and trimmed, slug derived when absent, markup re-rendered and
// sanitized from the document tree, and published_at maintained per the
// lifecycle invariant (set iff published; stable across later edits while
// published; cleared on unpublish). A blank id inserts, anything else
// updates, and updates are restricted to the owning author.
func (s *Service) Save(ctx context.Context, authorID string, draft Draft) (Article, error) {
	if strings.TrimSpace(authorID) == "" {
		return Article{}, newServiceError(opSave, "missing_author", ErrNotOwner)
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return Article{}, newServiceError(opSave, "missing_title", ErrTitleRequired)
	}
	status, err := ParseStatus(draft.Status)
	if err != nil {
		return Article{}, newServiceError(opSave, "invalid_status", err)
	}

	tree, err := content.DecodeDocument(draft.Content)
	if err != nil {
		return Article{}, newServiceError(opSave, "invalid_content", err)
	}
	encodedTree, err := content.EncodeDocument(tree)
	if err != nil {
		return Article{}, newServiceError(opSave, "encode_content_failed", err)
	}

	now := s.clock().UTC()
	fields := Article{
		Title:        title,
		Subtitle:     strings.TrimSpace(draft.Subtitle),
		Excerpt:      strings.TrimSpace(draft.Excerpt),
		CoverURL:     strings.TrimSpace(draft.CoverURL),
		ContentJSON:  string(encodedTree),
		ContentHTML:  content.RenderSafeHTML(tree),
		Status:       status,
		TagsCSV:      joinTags(ParseTags(draft.Tags)),
		SettingsJSON: EncodeStoredSettings(draft.Settings),
	}

	if strings.TrimSpace(draft.ID) == "" {
		return s.insert(ctx, authorID, draft, fields, now)
	}
	return s.update(ctx, authorID, draft, fields, now)
}

func (s *Service) insert(ctx context.Context, authorID string, draft Draft, fields Article, now time.Time) (Article, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSave, "id_generation_failed", err)
		return Article{}, newServiceError(opSave, "id_generation_failed", err)
	}

	fields.ID = id
	fields.AuthorID = authorID
	fields.Slug = resolveSlug(draft.Slug, fields.Title, id)
	if fields.Status == StatusPublished {
		fields.PublishedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(&fields).Error; err != nil {
		s.logError(opSave, "insert_failed", err, zap.String("article_id", id))
		return Article{}, newServiceError(opSave, "insert_failed", err)
	}
	return fields, nil
}

func (s *Service) update(ctx context.Context, authorID string, draft Draft, fields Article, now time.Time) (Article, error) {
	var existing Article
	err := s.db.WithContext(ctx).Where("id = ?", draft.ID).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Article{}, newServiceError(opSave, "not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opSave, "select_failed", err, zap.String("article_id", draft.ID))
		return Article{}, newServiceError(opSave, "select_failed", err)
	}
	if existing.AuthorID != authorID {
		return Article{}, newServiceError(opSave, "not_owner", ErrNotOwner)
	}

	fields.ID = existing.ID
	fields.AuthorID = existing.AuthorID
	fields.CreatedAt = existing.CreatedAt

	// The author-touched slug wins; derivation never overwrites it.
	if submitted := strings.TrimSpace(draft.Slug); submitted != "" {
		fields.Slug = submitted
	} else {
		fields.Slug = existing.Slug
	}

	switch {
	case fields.Status == StatusPublished && existing.PublishedAt != nil:
		fields.PublishedAt = existing.PublishedAt
	case fields.Status == StatusPublished:
		fields.PublishedAt = &now
	default:
		fields.PublishedAt = nil
	}

	if err := s.db.WithContext(ctx).Save(&fields).Error; err != nil {
		s.logError(opSave, "update_failed", err, zap.String("article_id", fields.ID))
		return Article{}, newServiceError(opSave, "update_failed", err)
	}
	return fields, nil
}

func resolveSlug(submitted, title, id string) string {
	if slug := strings.TrimSpace(submitted); slug != "" {
		return slug
	}
	if slug := DeriveSlug(title); slug != "" {
		return slug
	}
	return fallbackSlug(id)
}

// GetForAuthor loads an article of any status, restricted to its owner.
func (s *Service) GetForAuthor(ctx context.Context, authorID, id string) (Article, error) {
	var article Article
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Article{}, newServiceError(opGetForAuthor, "not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opGetForAuthor, "query_failed", err, zap.String("article_id", id))
		return Article{}, newServiceError(opGetForAuthor, "query_failed", err)
	}
	if article.AuthorID != authorID {
		return Article{}, newServiceError(opGetForAuthor, "not_owner", ErrNotOwner)
	}
	return article, nil
}

// ListByAuthor returns the author's articles, any status, newest update first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]Article, error) {
	var list []Article
	if err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("updated_at DESC").
		Find(&list).Error; err != nil {
		s.logError(opListByAuthor, "query_failed", err, zap.String("author_id", authorID))
		return nil, newServiceError(opListByAuthor, "query_failed", err)
	}
	return list, nil
}

// GetPublishedBySlug resolves a reader-facing lookup; draft articles are
// invisible here and a miss maps to a not-found response upstream.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (Article, error) {
	var article Article
	err := s.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, StatusPublished).
		Take(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Article{}, newServiceError(opGetPublished, "not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opGetPublished, "query_failed", err, zap.String("slug", slug))
		return Article{}, newServiceError(opGetPublished, "query_failed", err)
	}
	return article, nil
}

// ListPublished returns the public archive, newest publication first, with
// an optional tag filter.
func (s *Service) ListPublished(ctx context.Context, tag string) ([]Article, error) {
	query := s.db.WithContext(ctx).
		Where("status = ?", StatusPublished).
		Order("published_at DESC")
	if tag = strings.TrimSpace(tag); tag != "" {
		query = query.Where("',' || REPLACE(tags, ' ', '') || ',' LIKE ?", "%,"+strings.ReplaceAll(tag, " ", "")+",%")
	}
	var list []Article
	if err := query.Find(&list).Error; err != nil {
		s.logError(opListPublished, "query_failed", err, zap.String("tag", tag))
		return nil, newServiceError(opListPublished, "query_failed", err)
	}
	return list, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("articles service error", attrs...)
}
