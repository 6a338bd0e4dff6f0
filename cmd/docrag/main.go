package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/schle1cherr/docrag/internal/ai"
	"github.com/schle1cherr/docrag/internal/assemble"
	"github.com/schle1cherr/docrag/internal/config"
	"github.com/schle1cherr/docrag/internal/docsource"
	"github.com/schle1cherr/docrag/internal/embedcache"
	"github.com/schle1cherr/docrag/internal/handler"
	"github.com/schle1cherr/docrag/internal/job"
	"github.com/schle1cherr/docrag/internal/middleware"
	"github.com/schle1cherr/docrag/internal/repo"
	"github.com/schle1cherr/docrag/internal/retrieval"
	"github.com/schle1cherr/docrag/internal/schedule"
	"github.com/schle1cherr/docrag/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docrag",
		Short: "docrag document question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docrag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, db)
		},
	}

	var ingestDir string
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "scan the document source and rebuild the index, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			if ingestDir != "" {
				cfg.DocSource = config.DocSourceConfig{
					Type: "local",
					Data: map[string]interface{}{"dir": ingestDir},
				}
			}
			return runIngest(cfg, db)
		},
	}
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "ingest this local directory instead of the configured source")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	db, err := repo.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db, cfg.AI.EmbedDim); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, nil
}

func buildGenerator(cfg config.AIConfig) ai.IGenerator {
	items := make([]ai.GeneratorEntry, 0, len(cfg.Generators))
	for _, pc := range cfg.Generators {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			logutil.GetLogger(context.Background()).Warn("skip generator",
				zap.String("provider", pc.Provider), zap.Error(err))
			continue
		}
		items = append(items, ai.GeneratorEntry{
			Name:      fmt.Sprintf("%s/%s", pc.Provider, pc.Model),
			Generator: ai.NewGenerator(provider, pc.Model),
		})
	}
	return ai.NewGroupGenerator(items)
}

func buildEmbedder(cfg config.AIConfig) ai.IEmbedder {
	items := make([]ai.EmbedderEntry, 0, len(cfg.Embedders))
	for _, pc := range cfg.Embedders {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			logutil.GetLogger(context.Background()).Warn("skip embedder",
				zap.String("provider", pc.Provider), zap.Error(err))
			continue
		}
		items = append(items, ai.EmbedderEntry{
			Name:     fmt.Sprintf("%s/%s", pc.Provider, pc.Model),
			Embedder: ai.NewEmbedder(provider, pc.Model),
		})
	}
	group := ai.NewGroupEmbedder(items)
	if group == nil {
		return nil
	}
	return embedcache.Wrap(group, cfg.EmbedCacheSize, time.Duration(cfg.EmbedCacheTTLHours)*time.Hour)
}

func buildServices(cfg *config.Config, db *sql.DB) (*service.IngestService, *service.AskService, error) {
	source, err := docsource.New(cfg.DocSource)
	if err != nil {
		return nil, nil, fmt.Errorf("init doc source: %w", err)
	}

	chunkRepo := repo.NewChunkRepo(db, cfg.AI.EmbedDim)
	fileStateRepo := repo.NewFileStateRepo(db)

	generator := buildGenerator(cfg.AI)
	embedder := buildEmbedder(cfg.AI)
	if embedder == nil {
		logutil.GetLogger(context.Background()).Warn("no embedder configured, retrieval runs lexical-only")
	}

	fusion, err := retrieval.NewFusion(
		retrieval.NewDenseRetriever(embedder, chunkRepo),
		retrieval.NewSparseRetriever(chunkRepo),
		retrieval.Policy(cfg.Retrieval.Policy),
		cfg.Retrieval.DenseWeight,
		cfg.Retrieval.SparseWeight,
		cfg.Retrieval.K,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init fusion: %w", err)
	}
	assembler, err := assemble.New(cfg.Context.Budget)
	if err != nil {
		return nil, nil, fmt.Errorf("init assembler: %w", err)
	}

	ingestService := service.NewIngestService(source, chunkRepo, fileStateRepo, embedder, cfg.AI.EmbedDim)
	askService := service.NewAskService(fusion, assembler, generator)
	return ingestService, askService, nil
}

func runIngest(cfg *config.Config, db *sql.DB) error {
	ingestService, _, err := buildServices(cfg, db)
	if err != nil {
		return err
	}
	report, err := ingestService.Run(context.Background())
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("ingest done",
		zap.Int("files", report.Files),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("removed", report.Removed),
		zap.Int("chunks", report.Chunks),
	)
	return nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("doc_source", cfg.DocSource.Type),
		zap.String("retrieval_policy", cfg.Retrieval.Policy),
	)

	ingestService, askService, err := buildServices(cfg, db)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Ask:          handler.NewAskHandler(askService),
		Ingest:       handler.NewIngestHandler(ingestService),
		AskRateLimit: time.Duration(cfg.AskRateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Ingest.CronSpec != "" {
		if err := scheduler.AddJob(job.NewReingestJob(ingestService), cfg.Ingest.CronSpec); err != nil {
			return fmt.Errorf("schedule reingest: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
