package articles

import (
	"errors"
	"strings"
	"time"
)

// Status tracks an article through its lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ErrInvalidStatus indicates a lifecycle value outside {draft, published}.
var ErrInvalidStatus = errors.New("articles: invalid status")

// ParseStatus validates a submitted lifecycle value. Empty input defaults to
// draft so a brand-new editor form can save without touching the selector.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusDraft, "":
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Article is the persisted unit of published or draft content. ContentJSON
// holds the editable document tree; ContentHTML is derived from it at save
// time and the two never diverge once persisted.
type Article struct {
	ID           string     `gorm:"column:id;primaryKey;size:36;not null"`
	AuthorID     string     `gorm:"column:author_id;size:36;not null;index:idx_articles_author_updated,priority:1"`
	Title        string     `gorm:"column:title;size:320;not null"`
	Subtitle     string     `gorm:"column:subtitle;size:320"`
	Slug         string     `gorm:"column:slug;size:190;not null;uniqueIndex"`
	Excerpt      string     `gorm:"column:excerpt;type:text"`
	CoverURL     string     `gorm:"column:cover_url;size:512"`
	ContentJSON  string     `gorm:"column:content_json;type:text;not null"`
	ContentHTML  string     `gorm:"column:content_html;type:text;not null"`
	Status       Status     `gorm:"column:status;size:16;not null;index"`
	TagsCSV      string     `gorm:"column:tags;type:text"`
	SettingsJSON string     `gorm:"column:settings_json;type:text"`
	PublishedAt  *time.Time `gorm:"column:published_at;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime;index:idx_articles_author_updated,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Article) TableName() string {
	return "articles"
}

// Tags exposes the ordered tag set stored in the comma-joined column.
func (a Article) Tags() []string {
	return ParseTags(a.TagsCSV)
}

// Settings resolves the stored settings blob against defaults.
func (a Article) Settings() Settings {
	return ResolveSettings(ParseStoredSettings(a.SettingsJSON))
}

// ParseTags splits a comma-separated tag string, trimming whitespace and
// dropping empty entries while preserving order.
func ParseTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
