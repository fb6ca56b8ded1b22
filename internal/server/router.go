package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/reginald-press/reginald/internal/articles"
	"github.com/reginald-press/reginald/internal/auth"
	"github.com/reginald-press/reginald/internal/content"
	"github.com/reginald-press/reginald/internal/favorites"
	"github.com/reginald-press/reginald/internal/profiles"
	"github.com/reginald-press/reginald/internal/search"
	"go.uber.org/zap"
)

const userIDContextKey = "reginald_user_id"

var (
	errMissingTokenManager    = errors.New("token manager dependency required")
	errMissingProfileService  = errors.New("profile service dependency required")
	errMissingArticleService  = errors.New("article service dependency required")
	errMissingFavoriteService = errors.New("favorite service dependency required")
	errInvalidAuthorization   = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the bearer tokens backing sessions.
type TokenManager interface {
	IssueSessionToken(ctx context.Context, userID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the domain services into the HTTP surface. SearchIndex
// is optional; without it the search endpoint reports unavailable.
type Dependencies struct {
	TokenManager    TokenManager
	ProfileService  *profiles.Service
	ArticleService  *articles.Service
	FavoriteService *favorites.Service
	SearchIndex     *search.Index
	Logger          *zap.Logger
}

// NewHTTPHandler validates dependencies and assembles the Gin router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.ProfileService == nil {
		return nil, errMissingProfileService
	}
	if deps.ArticleService == nil {
		return nil, errMissingArticleService
	}
	if deps.FavoriteService == nil {
		return nil, errMissingFavoriteService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:    deps.TokenManager,
		profiles:  deps.ProfileService,
		articles:  deps.ArticleService,
		favorites: deps.FavoriteService,
		index:     deps.SearchIndex,
		logger:    logger,
	}

	router.POST("/auth/sign-up", handler.handleSignUp)
	router.POST("/auth/sign-in", handler.handleSignIn)

	public := router.Group("/")
	public.Use(handler.attachViewer)
	public.GET("/articles", handler.handleListArticles)
	public.GET("/articles/search", handler.handleSearchArticles)
	public.GET("/articles/:slug", handler.handleGetArticle)
	public.GET("/articles/:slug/favorite", handler.handleFavoriteStatus)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/me", handler.handleGetProfile)
	protected.PUT("/me", handler.handleUpdateProfile)
	protected.POST("/me/elevate", handler.handleElevateProfile)
	protected.POST("/articles/:slug/favorite/toggle", handler.handleFavoriteToggle)

	author := protected.Group("/author")
	author.Use(handler.requireAuthor)
	author.GET("/articles", handler.handleAuthorList)
	author.GET("/articles/:id", handler.handleAuthorGet)
	author.POST("/articles", handler.handleAuthorSave)

	return router, nil
}

type httpHandler struct {
	tokens    TokenManager
	profiles  *profiles.Service
	articles  *articles.Service
	favorites *favorites.Service
	index     *search.Index
	logger    *zap.Logger
}

type signUpRequestPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type signInRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponsePayload struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
	Profile     profilePayload `json:"profile"`
}

type profilePayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	Role        string `json:"role"`
}

func newProfilePayload(profile profiles.Profile) profilePayload {
	return profilePayload{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		Role:        string(profile.Role),
	}
}

func (h *httpHandler) handleSignUp(c *gin.Context) {
	var request signUpRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.Register(c.Request.Context(), request.Email, request.Password, request.DisplayName)
	switch {
	case errors.Is(err, profiles.ErrEmailTaken),
		errors.Is(err, profiles.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("sign-up failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
		return
	}

	h.respondWithSession(c, http.StatusCreated, profile)
}

func (h *httpHandler) handleSignIn(c *gin.Context) {
	var request signInRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.Authenticate(c.Request.Context(), request.Email, request.Password)
	if errors.Is(err, profiles.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("sign-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication_failed"})
		return
	}

	h.respondWithSession(c, http.StatusOK, profile)
}

func (h *httpHandler) respondWithSession(c *gin.Context, status int, profile profiles.Profile) {
	token, expiresIn, err := h.tokens.IssueSessionToken(c.Request.Context(), profile.ID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(status, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		Profile:     newProfilePayload(profile),
	})
}

func (h *httpHandler) handleListArticles(c *gin.Context) {
	list, err := h.articles.ListPublished(c.Request.Context(), c.Query("tag"))
	if err != nil {
		h.logger.Error("archive listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive_unavailable"})
		return
	}

	names, err := h.authorNames(c.Request.Context(), list)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive_unavailable"})
		return
	}

	cards := make([]articles.ArticleCard, 0, len(list))
	for _, article := range list {
		cards = append(cards, articles.NewArticleCard(article, names[article.AuthorID]))
	}
	c.JSON(http.StatusOK, gin.H{"articles": cards})
}

func (h *httpHandler) authorNames(ctx context.Context, list []articles.Article) (map[string]string, error) {
	seen := make(map[string]struct{}, len(list))
	ids := make([]string, 0, len(list))
	for _, article := range list {
		if _, ok := seen[article.AuthorID]; ok {
			continue
		}
		seen[article.AuthorID] = struct{}{}
		ids = append(ids, article.AuthorID)
	}
	names, err := h.profiles.DisplayNames(ctx, ids)
	if err != nil {
		h.logger.Error("author name lookup failed", zap.Error(err))
		return nil, err
	}
	return names, nil
}

type searchHitPayload struct {
	Slug      string              `json:"slug"`
	Title     string              `json:"title"`
	Author    string              `json:"author,omitempty"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

func (h *httpHandler) handleSearchArticles(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search_unavailable"})
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	hits, err := h.index.Search(query, 20)
	if err != nil {
		h.logger.Error("article search failed", zap.String("query", query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search_failed"})
		return
	}

	results := make([]searchHitPayload, 0, len(hits))
	for _, hit := range hits {
		results = append(results, searchHitPayload{
			Slug:      hit.Slug,
			Title:     hit.Title,
			Author:    hit.Author,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *httpHandler) handleGetArticle(c *gin.Context) {
	article, ok := h.lookupPublished(c)
	if !ok {
		return
	}

	viewerID := c.GetString(userIDContextKey)
	status, err := h.favorites.StatusFor(c.Request.Context(), article.ID, viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "article_unavailable"})
		return
	}

	authorName := ""
	if author, err := h.profiles.Get(c.Request.Context(), article.AuthorID); err == nil {
		authorName = author.DisplayName
	}

	view := articles.NewArticleView(article, authorName, status.Count)
	c.JSON(http.StatusOK, gin.H{"article": view, "favorited": status.Favorited})
}

func (h *httpHandler) handleFavoriteStatus(c *gin.Context) {
	article, ok := h.lookupPublished(c)
	if !ok {
		return
	}

	status, err := h.favorites.StatusFor(c.Request.Context(), article.ID, c.GetString(userIDContextKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "favorite_status_failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *httpHandler) handleFavoriteToggle(c *gin.Context) {
	article, ok := h.lookupPublished(c)
	if !ok {
		return
	}

	status, err := h.favorites.Toggle(c.Request.Context(), article.ID, c.GetString(userIDContextKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "favorite_toggle_failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// lookupPublished resolves the :slug route parameter against the published
// archive, writing the 404 itself on a miss.
func (h *httpHandler) lookupPublished(c *gin.Context) (articles.Article, bool) {
	article, err := h.articles.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, articles.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return articles.Article{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "article_unavailable"})
		return articles.Article{}, false
	}
	return article, true
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.GetString(userIDContextKey))
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_unavailable"})
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}

type updateProfileRequestPayload struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request updateProfileRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), c.GetString(userIDContextKey), request.DisplayName, request.Bio)
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}

func (h *httpHandler) handleElevateProfile(c *gin.Context) {
	profile, err := h.profiles.ElevateToAuthor(c.Request.Context(), c.GetString(userIDContextKey))
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_elevation_failed"})
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}

type authorArticlePayload struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Subtitle    string                  `json:"subtitle,omitempty"`
	Slug        string                  `json:"slug"`
	Excerpt     string                  `json:"excerpt,omitempty"`
	CoverURL    string                  `json:"cover_url,omitempty"`
	Tags        []string                `json:"tags"`
	Status      string                  `json:"status"`
	Settings    articles.StoredSettings `json:"settings"`
	Content     json.RawMessage         `json:"content"`
	PublishedAt *time.Time              `json:"published_at,omitempty"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func newAuthorArticlePayload(article articles.Article) authorArticlePayload {
	return authorArticlePayload{
		ID:          article.ID,
		Title:       article.Title,
		Subtitle:    article.Subtitle,
		Slug:        article.Slug,
		Excerpt:     article.Excerpt,
		CoverURL:    article.CoverURL,
		Tags:        article.Tags(),
		Status:      string(article.Status),
		Settings:    articles.ParseStoredSettings(article.SettingsJSON),
		Content:     json.RawMessage(article.ContentJSON),
		PublishedAt: article.PublishedAt,
		UpdatedAt:   article.UpdatedAt,
	}
}

func (h *httpHandler) handleAuthorList(c *gin.Context) {
	list, err := h.articles.ListByAuthor(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard_unavailable"})
		return
	}
	payloads := make([]authorArticlePayload, 0, len(list))
	for _, article := range list {
		payloads = append(payloads, newAuthorArticlePayload(article))
	}
	c.JSON(http.StatusOK, gin.H{"articles": payloads})
}

func (h *httpHandler) handleAuthorGet(c *gin.Context) {
	article, err := h.articles.GetForAuthor(c.Request.Context(), c.GetString(userIDContextKey), c.Param("id"))
	switch {
	case errors.Is(err, articles.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	case errors.Is(err, articles.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_owner"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "article_unavailable"})
		return
	}
	c.JSON(http.StatusOK, newAuthorArticlePayload(article))
}

type saveArticleRequestPayload struct {
	ID       string                  `json:"id"`
	Title    string                  `json:"title"`
	Subtitle string                  `json:"subtitle"`
	Slug     string                  `json:"slug"`
	Excerpt  string                  `json:"excerpt"`
	CoverURL string                  `json:"cover_url"`
	Tags     string                  `json:"tags"`
	Status   string                  `json:"status"`
	Settings articles.StoredSettings `json:"settings"`
	Content  json.RawMessage         `json:"content"`
}

func (h *httpHandler) handleAuthorSave(c *gin.Context) {
	var request saveArticleRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	authorID := c.GetString(userIDContextKey)
	saved, err := h.articles.Save(c.Request.Context(), authorID, articles.Draft{
		ID:       request.ID,
		Title:    request.Title,
		Subtitle: request.Subtitle,
		Slug:     request.Slug,
		Excerpt:  request.Excerpt,
		CoverURL: request.CoverURL,
		Tags:     request.Tags,
		Status:   request.Status,
		Settings: request.Settings,
		Content:  request.Content,
	})
	switch {
	case errors.Is(err, articles.ErrTitleRequired),
		errors.Is(err, articles.ErrInvalidStatus),
		errors.Is(err, content.ErrInvalidDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, articles.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	case errors.Is(err, articles.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_owner"})
		return
	case err != nil:
		h.logger.Error("article save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": serviceErrorCode(err)})
		return
	}

	h.syncSearchIndex(c.Request.Context(), saved)

	status := http.StatusOK
	if strings.TrimSpace(request.ID) == "" {
		status = http.StatusCreated
	}
	c.JSON(status, newAuthorArticlePayload(saved))
}

// syncSearchIndex keeps the archive search in step with the save outcome.
// Index failures are logged, never surfaced: the write already committed.
func (h *httpHandler) syncSearchIndex(ctx context.Context, article articles.Article) {
	if h.index == nil {
		return
	}
	if article.Status != articles.StatusPublished {
		if err := h.index.Remove(article.ID); err != nil {
			h.logger.Warn("search index removal failed",
				zap.String("article_id", article.ID), zap.Error(err))
		}
		return
	}

	authorName := ""
	if author, err := h.profiles.Get(ctx, article.AuthorID); err == nil {
		authorName = author.DisplayName
	}
	doc := search.Document{
		ID:       article.ID,
		Slug:     article.Slug,
		Title:    article.Title,
		Subtitle: article.Subtitle,
		Excerpt:  article.Excerpt,
		Body:     search.BodyText(article.ContentHTML),
		Author:   authorName,
		Tags:     article.Tags(),
	}
	if err := h.index.IndexDocument(doc); err != nil {
		h.logger.Warn("search index update failed",
			zap.String("article_id", article.ID), zap.Error(err))
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	subject, ok := h.bearerSubject(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

// attachViewer resolves an optional bearer token so public pages can report
// viewer-specific favorite state. Anonymous and invalid tokens both read as
// signed out.
func (h *httpHandler) attachViewer(c *gin.Context) {
	if subject, ok := h.bearerSubject(c); ok {
		c.Set(userIDContextKey, subject)
	}
	c.Next()
}

func (h *httpHandler) bearerSubject(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		// Expiry is routine; anything else deserves a louder signal.
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		return "", false
	}
	return subject, true
}

func (h *httpHandler) requireAuthor(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.GetString(userIDContextKey))
	if errors.Is(err, profiles.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile_unavailable"})
		return
	}
	if !profile.IsAuthor() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "author_access_required"})
		return
	}
	c.Next()
}

func serviceErrorCode(err error) string {
	var serviceError *articles.ServiceError
	if errors.As(err, &serviceError) {
		return serviceError.Code()
	}
	return "internal_error"
}
