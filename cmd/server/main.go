package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/notegit/notesyncd/internal/api"
	"github.com/notegit/notesyncd/internal/config"
	"github.com/notegit/notesyncd/internal/gitrepo"
	"github.com/notegit/notesyncd/internal/repo"
	"github.com/notegit/notesyncd/internal/secrets"
	"github.com/notegit/notesyncd/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := setupLogger(cfg)

	var store secrets.Store
	switch cfg.SecretsBackend {
	case "memory":
		store = secrets.NewMemoryStore()
	default:
		store = secrets.NewKeyringStore("")
	}

	repos := repo.NewManager(store, gitrepo.Author{
		Name:  cfg.CommitAuthorName,
		Email: cfg.CommitAuthorEmail,
	})

	settings := settingsStore(logger)
	facade := service.New(repos, settings)

	reconnect(facade, settings, cfg, logger)

	router := api.SetupRouter(api.NewHandler(facade, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting notesyncd server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	facade.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if cfg.LogFile != "" {
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}))
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

func settingsStore(logger *logrus.Logger) *config.SettingsFile {
	path, err := config.DefaultSettingsPath()
	if err != nil {
		logger.WithError(err).Warn("No user config directory, connection settings will not persist")
		return nil
	}
	return config.NewSettingsFile(path)
}

// reconnect restores the previous session's repository connection, preferring
// explicit environment configuration over persisted settings. Failure is
// logged, not fatal: the API can connect later.
func reconnect(facade *service.Facade, settings *config.SettingsFile, cfg *config.Config, logger *logrus.Logger) {
	repoURL := cfg.RepoURL
	localPath := cfg.LocalRepoPath

	if repoURL == "" && settings != nil {
		saved, err := settings.Load()
		if err != nil {
			logger.WithError(err).Warn("Failed to load persisted settings")
		} else {
			repoURL = saved.RepoURL
			localPath = saved.LocalRepoPath
		}
	}

	if repoURL == "" || localPath == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := facade.Connect(ctx, repoURL, localPath, ""); err != nil {
		logger.WithFields(logrus.Fields{
			"repository": repoURL,
		}).WithError(err).Warn("Could not reconnect to repository")
		return
	}

	logger.WithField("repository", repoURL).Info("Reconnected to repository")

	if cfg.SyncIntervalSeconds > 0 {
		if err := facade.StartAutomaticSync(cfg.SyncIntervalSeconds); err != nil {
			logger.WithError(err).Warn("Could not start automatic sync")
		}
	}
}
