package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reginald-press/reginald/internal/articles"
	"github.com/reginald-press/reginald/internal/auth"
	"github.com/reginald-press/reginald/internal/database"
	"github.com/reginald-press/reginald/internal/favorites"
	"github.com/reginald-press/reginald/internal/profiles"
	"github.com/reginald-press/reginald/internal/search"
	"github.com/reginald-press/reginald/internal/server"
	"go.uber.org/zap"
)

const (
	signingSecret   = "integration-secret"
	jsonContentType = "application/json"
)

// The full reader-and-author journey: register, elevate to author, draft,
// publish, browse the public archive, search, and favorite.
func TestPublishAndFavoriteFlow(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	tempDir := testContext.TempDir()

	db, err := database.OpenSQLite(filepath.Join(tempDir, "reginald.db"), zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	index, err := search.Open(filepath.Join(tempDir, "reginald.bleve"))
	if err != nil {
		testContext.Fatalf("failed to open search index: %v", err)
	}
	defer index.Close() //nolint:errcheck

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(signingSecret),
		Issuer:        "reginald-auth",
		Audience:      "reginald-api",
		TokenTTL:      30 * time.Minute,
	})
	if err != nil {
		testContext.Fatalf("failed to construct token issuer: %v", err)
	}

	profileService, err := profiles.NewService(profiles.ServiceConfig{
		Database:   db,
		IDProvider: articles.NewUUIDProvider(),
		Logger:     zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build profile service: %v", err)
	}
	articleService, err := articles.NewService(articles.ServiceConfig{
		Database:   db,
		IDProvider: articles.NewUUIDProvider(),
		Logger:     zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build article service: %v", err)
	}
	favoriteService, err := favorites.NewService(favorites.ServiceConfig{
		Database: db,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build favorite service: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager:    tokenManager,
		ProfileService:  profileService,
		ArticleService:  articleService,
		FavoriteService: favoriteService,
		SearchIndex:     index,
		Logger:          zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build handler: %v", err)
	}

	apiServer := httptest.NewServer(handler)
	defer apiServer.Close()
	client := apiServer.Client()

	// Register the author and a reader.
	authorToken := registerAccount(testContext, client, apiServer.URL, "reginald@example.com", "Reginald")
	readerToken := registerAccount(testContext, client, apiServer.URL, "reader@example.com", "Loyal Reader")

	// Self-service elevation unlocks the author console.
	var authorProfile struct {
		Role string `json:"role"`
	}
	postJSON(testContext, client, apiServer.URL+"/me/elevate", authorToken, nil, http.StatusOK, &authorProfile)
	if authorProfile.Role != "author" {
		testContext.Fatalf("expected author role, got %q", authorProfile.Role)
	}

	// Draft first, then publish the same record.
	draftBody := map[string]any{
		"title":  "The Great Stapler Shortage",
		"status": "draft",
		"tags":   "field-notes, supplies",
		"content": json.RawMessage(`{"type":"doc","content":[` +
			`{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Findings"}]},` +
			`{"type":"paragraph","content":[{"type":"text","text":"Every stapler has vanished."}]}]}`),
	}
	var saved struct {
		ID          string     `json:"id"`
		Slug        string     `json:"slug"`
		PublishedAt *time.Time `json:"published_at"`
	}
	postJSON(testContext, client, apiServer.URL+"/author/articles", authorToken, draftBody, http.StatusCreated, &saved)
	if saved.Slug != "the-great-stapler-shortage" {
		testContext.Fatalf("unexpected derived slug %q", saved.Slug)
	}
	if saved.PublishedAt != nil {
		testContext.Fatalf("draft must not carry a publication timestamp")
	}

	draftBody["id"] = saved.ID
	draftBody["status"] = "published"
	postJSON(testContext, client, apiServer.URL+"/author/articles", authorToken, draftBody, http.StatusOK, &saved)
	if saved.PublishedAt == nil {
		testContext.Fatalf("publishing must set the publication timestamp")
	}

	// The public archive now lists the article with the resolved author name.
	var archive struct {
		Articles []struct {
			Slug       string `json:"slug"`
			AuthorName string `json:"author_name"`
		} `json:"articles"`
	}
	getJSON(testContext, client, apiServer.URL+"/articles", "", http.StatusOK, &archive)
	if len(archive.Articles) != 1 || archive.Articles[0].Slug != "the-great-stapler-shortage" {
		testContext.Fatalf("unexpected archive %+v", archive.Articles)
	}
	if archive.Articles[0].AuthorName != "Reginald" {
		testContext.Fatalf("unexpected author name %q", archive.Articles[0].AuthorName)
	}

	// Search finds it by body prose.
	var results struct {
		Results []struct {
			Slug string `json:"slug"`
		} `json:"results"`
	}
	getJSON(testContext, client, apiServer.URL+"/articles/search?q=vanished", "", http.StatusOK, &results)
	if len(results.Results) != 1 || results.Results[0].Slug != "the-great-stapler-shortage" {
		testContext.Fatalf("unexpected search results %+v", results.Results)
	}

	// The reader favorites it; the response is the authoritative state.
	var status struct {
		Count     int64 `json:"count"`
		Favorited bool  `json:"favorited"`
	}
	postJSON(testContext, client, apiServer.URL+"/articles/the-great-stapler-shortage/favorite/toggle", readerToken, nil, http.StatusOK, &status)
	if !status.Favorited || status.Count != 1 {
		testContext.Fatalf("unexpected toggle state %+v", status)
	}

	// The detail view reflects the count; the anonymous viewer sees no membership.
	var detail struct {
		Article struct {
			FavoriteCount int64 `json:"favorite_count"`
		} `json:"article"`
		Favorited bool `json:"favorited"`
	}
	getJSON(testContext, client, apiServer.URL+"/articles/the-great-stapler-shortage", "", http.StatusOK, &detail)
	if detail.Article.FavoriteCount != 1 || detail.Favorited {
		testContext.Fatalf("unexpected anonymous detail %+v", detail)
	}
	getJSON(testContext, client, apiServer.URL+"/articles/the-great-stapler-shortage", readerToken, http.StatusOK, &detail)
	if !detail.Favorited {
		testContext.Fatalf("reader should see their favorite on the detail view")
	}
}

func registerAccount(testContext *testing.T, client *http.Client, baseURL, email, displayName string) string {
	testContext.Helper()

	var session struct {
		AccessToken string `json:"access_token"`
	}
	postJSON(testContext, client, baseURL+"/auth/sign-up", "", map[string]string{
		"email":        email,
		"password":     "a-long-password",
		"display_name": displayName,
	}, http.StatusCreated, &session)
	if session.AccessToken == "" {
		testContext.Fatalf("expected an access token for %s", email)
	}
	return session.AccessToken
}

func postJSON(testContext *testing.T, client *http.Client, url, token string, body any, wantStatus int, target any) {
	testContext.Helper()

	payload := []byte(nil)
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			testContext.Fatalf("failed to encode body: %v", err)
		}
		payload = encoded
	}
	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		testContext.Fatalf("failed to build request: %v", err)
	}
	request.Header.Set("Content-Type", jsonContentType)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	doJSON(testContext, client, request, wantStatus, target)
}

func getJSON(testContext *testing.T, client *http.Client, url, token string, wantStatus int, target any) {
	testContext.Helper()

	request, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		testContext.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	doJSON(testContext, client, request, wantStatus, target)
}

func doJSON(testContext *testing.T, client *http.Client, request *http.Request, wantStatus int, target any) {
	testContext.Helper()

	response, err := client.Do(request)
	if err != nil {
		testContext.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	var buffer bytes.Buffer
	if _, err := buffer.ReadFrom(response.Body); err != nil {
		testContext.Fatalf("failed to read response: %v", err)
	}
	if response.StatusCode != wantStatus {
		testContext.Fatalf("unexpected status %d (want %d): %s", response.StatusCode, wantStatus, buffer.String())
	}
	if target != nil {
		if err := json.Unmarshal(buffer.Bytes(), target); err != nil {
			testContext.Fatalf("failed to decode response %q: %v", buffer.String(), err)
		}
	}
}
