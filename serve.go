package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipechat/internal/api"
	"recipechat/internal/config"
	"recipechat/internal/models"
	"recipechat/internal/recipes"
	"recipechat/internal/redis"
	"recipechat/internal/service/ai"
	"recipechat/internal/service/recipe"
	"recipechat/internal/storage"
	"recipechat/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recipe suggestion server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default "+config.DefaultServerAddress+")")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataset, err := loadDataset(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("recipes loaded", zap.Int("count", len(dataset)), zap.String("source", cfg.BasicConfig.RecipeSource))

	llm, err := ai.NewService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	dispatcher := worker.NewDispatcher(worker.DispatcherConfig{
		MinWorkers:  cfg.BasicConfig.MinWorkers,
		MaxWorkers:  cfg.BasicConfig.Workers,
		QueueSize:   cfg.BasicConfig.QueueSize,
		IdleTimeout: cfg.WorkerIdle(),
		Logger:      logger.Named("worker"),
	})
	defer dispatcher.Close()

	opts := recipe.Options{
		Runner:   dispatcher,
		CacheTTL: cfg.CacheTTL(),
		Timeout:  cfg.RequestTimeout(),
		Logger:   logger.Named("recipe"),
	}
	var pinger api.Pinger
	if cfg.Redis.Enabled {
		rdb, err := redis.NewCache(cfg.Redis)
		if err != nil {
			logger.Warn("reply cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			logger.Info("reply cache enabled", zap.String("addr", rdb.Addr()))
			opts.Cache = rdb
			pinger = rdb
		}
	}

	svc := recipe.NewService(recipes.NewIndex(dataset), llm, opts)
	handlers := api.NewHandler(svc, pinger, logger.Named("http"))

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr), zap.String("model", llm.Name()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadDataset reads recipes from the JSON file or from the configured database.
func loadDataset(ctx context.Context, cfg *config.Config) ([]models.Recipe, error) {
	src := cfg.BasicConfig.RecipeSource
	if src == "file" {
		return recipes.LoadFile(cfg.BasicConfig.RecipesPath)
	}
	db, err := storage.Open(src, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := storage.Migrate(db, src); err != nil {
		return nil, err
	}
	dataset, err := storage.LoadRecipes(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(dataset) == 0 {
		return nil, recipes.ErrNoRecipes
	}
	return dataset, nil
}
