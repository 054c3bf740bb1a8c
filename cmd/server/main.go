// Command server runs the sjdb submission intake and moderator retrieval API.
//
// @title          ykps-sjdb API
// @version        0.1.0
// @description    Submission intake and moderator retrieval
// @BasePath       /
// @schemes        http https
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	_ "github.com/runxiyu/ykps-sjdb/api/swagger"
	"github.com/runxiyu/ykps-sjdb/internal/config"
	httpapi "github.com/runxiyu/ykps-sjdb/internal/http"
	"github.com/runxiyu/ykps-sjdb/internal/observability"
	"github.com/runxiyu/ykps-sjdb/internal/repo"
	"github.com/runxiyu/ykps-sjdb/internal/services"
	"github.com/runxiyu/ykps-sjdb/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	staleStagingAge = time.Hour
	shutdownTimeout = 15 * time.Second
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, nil)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	tokens, err := config.LoadTokens(cfg.TokensFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("file", cfg.TokensFile).Msg("tokens file missing, moderator retrieval disabled")
	case err != nil:
		return err
	}
	cfg.Tokens = tokens

	uploads, err := openArea("uploads", cfg.UploadDir)
	if err != nil {
		return err
	}
	records, err := openArea("submissions", cfg.SubmissionDir)
	if err != nil {
		return err
	}

	attachments := repo.NewAttachmentRepo(uploads)
	recordRepo := repo.NewSubmissionRepo(records)

	pipeline := services.NewSubmissionService(
		attachments,
		recordRepo,
		services.NewAdmissionControl(uploads.Name, uploads.Dir, cfg.MinFreeBytes),
	)
	pipeline.PseudonymLabel = cfg.PseudonymLabel

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Submissions: pipeline,
		Retrieval:   services.NewRetrievalService(recordRepo, attachments, cfg.Tokens),
		Banner:      "ykps-sjdb " + version + "\n",
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Int("tokens", len(cfg.Tokens)).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// openArea prepares a storage area and clears staging files left by a crash.
func openArea(name, dir string) (*repo.Area, error) {
	a, err := repo.OpenArea(name, dir)
	if err != nil {
		return nil, err
	}
	n, err := a.SweepStaging(staleStagingAge)
	if err != nil {
		log.Warn().Err(err).Str("area", name).Msg("staging sweep failed")
	} else if n > 0 {
		log.Info().Int("removed", n).Str("area", name).Msg("stale staging files removed")
	}
	return a, nil
}
