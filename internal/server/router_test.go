package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/reginald-press/reginald/internal/articles"
	"github.com/reginald-press/reginald/internal/auth"
	"github.com/reginald-press/reginald/internal/favorites"
	"github.com/reginald-press/reginald/internal/profiles"
	"github.com/reginald-press/reginald/internal/search"
	"gorm.io/gorm"
)

type serverFixture struct {
	handler http.Handler
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:reginald_server_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&articles.Article{}, &profiles.Profile{}, &favorites.Favorite{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	index, err := search.Open(filepath.Join(t.TempDir(), "articles.bleve"))
	if err != nil {
		t.Fatalf("failed to open search index: %v", err)
	}
	t.Cleanup(func() {
		if err := index.Close(); err != nil {
			t.Errorf("failed to close search index: %v", err)
		}
	})

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("router-test-secret"),
		Issuer:        "reginald-auth",
		Audience:      "reginald-api",
		TokenTTL:      30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to build token issuer: %v", err)
	}

	profileService, err := profiles.NewService(profiles.ServiceConfig{
		Database:   db,
		IDProvider: articles.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build profile service: %v", err)
	}
	articleService, err := articles.NewService(articles.ServiceConfig{
		Database:   db,
		IDProvider: articles.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build article service: %v", err)
	}
	favoriteService, err := favorites.NewService(favorites.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build favorite service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager:    issuer,
		ProfileService:  profileService,
		ArticleService:  articleService,
		FavoriteService: favoriteService,
		SearchIndex:     index,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	return &serverFixture{handler: handler}
}

func (f *serverFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

// signUp registers an account and returns its bearer token.
func (f *serverFixture) signUp(t *testing.T, email, displayName string) string {
	t.Helper()

	recorder := f.do(t, http.MethodPost, "/auth/sign-up", "", map[string]string{
		"email":        email,
		"password":     "a-long-password",
		"display_name": displayName,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("sign-up failed with %d: %s", recorder.Code, recorder.Body.String())
	}
	var session sessionResponsePayload
	decodeBody(t, recorder, &session)
	if session.AccessToken == "" {
		t.Fatalf("expected an access token")
	}
	return session.AccessToken
}

// signUpAuthor registers and elevates an account in one step.
func (f *serverFixture) signUpAuthor(t *testing.T, email, displayName string) string {
	t.Helper()

	token := f.signUp(t, email, displayName)
	recorder := f.do(t, http.MethodPost, "/me/elevate", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("elevation failed with %d: %s", recorder.Code, recorder.Body.String())
	}
	return token
}

func documentWithParagraph(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":%q}]}]}`, text))
}

// publishArticle saves a published article and returns its payload.
func (f *serverFixture) publishArticle(t *testing.T, token, title string) authorArticlePayload {
	t.Helper()

	recorder := f.do(t, http.MethodPost, "/author/articles", token, map[string]any{
		"title":   title,
		"status":  "published",
		"tags":    "field-notes",
		"content": documentWithParagraph("The findings were inconclusive."),
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("publish failed with %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload authorArticlePayload
	decodeBody(t, recorder, &payload)
	return payload
}
