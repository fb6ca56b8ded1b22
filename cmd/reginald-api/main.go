package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reginald-press/reginald/internal/articles"
	"github.com/reginald-press/reginald/internal/auth"
	"github.com/reginald-press/reginald/internal/config"
	"github.com/reginald-press/reginald/internal/database"
	"github.com/reginald-press/reginald/internal/favorites"
	"github.com/reginald-press/reginald/internal/logging"
	"github.com/reginald-press/reginald/internal/profiles"
	"github.com/reginald-press/reginald/internal/search"
	"github.com/reginald-press/reginald/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reginald-api",
		Short: "Reginald publishing backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("search-index-path", defaults.GetString("search.index_path"), "Bleve search index path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "search.index_path", "search-index-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	index, err := search.Open(appConfig.SearchIndexPath)
	if err != nil {
		return err
	}
	defer index.Close() //nolint:errcheck

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.AuthSigningSecret),
		Issuer:        "reginald-auth",
		Audience:      "reginald-api",
		TokenTTL:      time.Duration(appConfig.TokenTTLMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}

	profileService, err := profiles.NewService(profiles.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: articles.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	articleService, err := articles.NewService(articles.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: articles.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	favoriteService, err := favorites.NewService(favorites.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if err := rebuildSearchIndex(ctx, index, articleService, profileService, logger); err != nil {
		// The archive still serves from the database; search degrades alone.
		logger.Warn("search index rebuild failed", zap.Error(err))
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager:    tokenManager,
		ProfileService:  profileService,
		ArticleService:  articleService,
		FavoriteService: favoriteService,
		SearchIndex:     index,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// rebuildSearchIndex reseeds the index from the published archive so restarts
// pick up writes made while the index file was absent or stale.
func rebuildSearchIndex(ctx context.Context, index *search.Index, articleService *articles.Service, profileService *profiles.Service, logger *zap.Logger) error {
	published, err := articleService.ListPublished(ctx, "")
	if err != nil {
		return err
	}

	authorIDs := make([]string, 0, len(published))
	seen := make(map[string]struct{}, len(published))
	for _, article := range published {
		if _, ok := seen[article.AuthorID]; ok {
			continue
		}
		seen[article.AuthorID] = struct{}{}
		authorIDs = append(authorIDs, article.AuthorID)
	}
	names, err := profileService.DisplayNames(ctx, authorIDs)
	if err != nil {
		return err
	}

	docs := make([]search.Document, 0, len(published))
	for _, article := range published {
		docs = append(docs, search.Document{
			ID:       article.ID,
			Slug:     article.Slug,
			Title:    article.Title,
			Subtitle: article.Subtitle,
			Excerpt:  article.Excerpt,
			Body:     search.BodyText(article.ContentHTML),
			Author:   names[article.AuthorID],
			Tags:     article.Tags(),
		})
	}
	if err := index.Rebuild(docs); err != nil {
		return err
	}

	logger.Info("search index rebuilt", zap.Int("articles", len(docs)))
	return nil
}
