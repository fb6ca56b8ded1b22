package articles

import "time"

// ArticleView is the reader-facing projection of a published record: settings
// resolved, reading pace mapped to its label, body markup already sanitized.
// It carries no behavior.
type ArticleView struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	Subtitle         string     `json:"subtitle,omitempty"`
	Excerpt          string     `json:"excerpt,omitempty"`
	CoverURL         string     `json:"cover_url,omitempty"`
	AuthorName       string     `json:"author_name"`
	Tags             []string   `json:"tags"`
	BodyHTML         string     `json:"body_html"`
	Kicker           string     `json:"kicker"`
	AccentColor      string     `json:"accent_color"`
	LayoutStyle      string     `json:"layout_style"`
	HeroTreatment    string     `json:"hero_treatment"`
	ReadingPace      string     `json:"reading_pace"`
	ReadingPaceLabel string     `json:"reading_pace_label"`
	ShowToc          bool       `json:"show_toc"`
	ShowDropCap      bool       `json:"show_drop_cap"`
	PullQuote        string     `json:"pull_quote,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	FavoriteCount    int64      `json:"favorite_count"`
}

// NewArticleView projects an article for display. An empty author name reads
// as Anonymous, matching the reader pages.
func NewArticleView(article Article, authorName string, favoriteCount int64) ArticleView {
	settings := article.Settings()
	if authorName == "" {
		authorName = "Anonymous"
	}
	return ArticleView{
		ID:               article.ID,
		Slug:             article.Slug,
		Title:            article.Title,
		Subtitle:         article.Subtitle,
		Excerpt:          article.Excerpt,
		CoverURL:         article.CoverURL,
		AuthorName:       authorName,
		Tags:             article.Tags(),
		BodyHTML:         article.ContentHTML,
		Kicker:           settings.Kicker,
		AccentColor:      settings.AccentColor,
		LayoutStyle:      string(settings.LayoutStyle),
		HeroTreatment:    string(settings.HeroTreatment),
		ReadingPace:      string(settings.ReadingPace),
		ReadingPaceLabel: ReadingPaceLabel(settings.ReadingPace),
		ShowToc:          settings.ShowToc,
		ShowDropCap:      settings.ShowDropCap,
		PullQuote:        settings.PullQuote,
		PublishedAt:      article.PublishedAt,
		FavoriteCount:    favoriteCount,
	}
}

// ArticleCard is the archive-page projection: narrative fields plus the
// accent color and kicker, without the body.
type ArticleCard struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	AuthorName  string     `json:"author_name"`
	Tags        []string   `json:"tags"`
	Kicker      string     `json:"kicker"`
	AccentColor string     `json:"accent_color"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NewArticleCard projects an article for the archive listing.
func NewArticleCard(article Article, authorName string) ArticleCard {
	settings := article.Settings()
	if authorName == "" {
		authorName = "Anonymous"
	}
	return ArticleCard{
		ID:          article.ID,
		Slug:        article.Slug,
		Title:       article.Title,
		Excerpt:     article.Excerpt,
		CoverURL:    article.CoverURL,
		AuthorName:  authorName,
		Tags:        article.Tags(),
		Kicker:      settings.Kicker,
		AccentColor: settings.AccentColor,
		PublishedAt: article.PublishedAt,
	}
}
