package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"courseassist/internal/ai"
	"courseassist/internal/app"
	"courseassist/internal/cache"
	"courseassist/internal/config"
	"courseassist/internal/interaction"
	"courseassist/internal/knowledge"
	"courseassist/internal/monitoring"
	rabbitmqClient "courseassist/internal/platform/rabbitmq"
	redisClient "courseassist/internal/platform/redis"
	"courseassist/internal/wellbeing"
	"courseassist/internal/worker"
)

// LanguageModel is a Generator that can also report whether its model is loaded.
type LanguageModel interface {
	app.Generator
	Ready(ctx context.Context) error
}

type embedder interface {
	knowledge.Embedder
	Provider() string
}

type App struct {
	Config  *config.Config
	Metrics *monitoring.Metrics

	LLM          LanguageModel
	Embedder     knowledge.Embedder
	Knowledge    *knowledge.Base
	Flags        *wellbeing.FlagStore
	Monitor      *wellbeing.Monitor
	Interactions *interaction.Store

	Chat      *app.ChatService
	Upload    *app.UploadService
	Dashboard *app.DashboardService
	Auth      *app.AuthService

	Redis       *redis.Client
	MQConn      *amqp.Connection
	AlertWorker *worker.FlagAlertWorker

	StartedAt time.Time
}

// Build wires every component from cfg. Redis and RabbitMQ are optional and only dialed
// when configured; a configured but unreachable broker fails the build.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:       cfg,
		Metrics:      monitoring.Default(),
		Flags:        wellbeing.NewFlagStore(),
		Interactions: interaction.NewStore(),
		StartedAt:    time.Now(),
	}

	llm, err := newLanguageModel(cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.LLM = llm

	emb, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	a.Embedder = emb
	log.Info().Str("provider", emb.Provider()).Str("model", emb.Model()).Msg("embedding provider configured")

	var embCache knowledge.EmbeddingCache
	if cfg.Redis.Addr != "" {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		embCache = cache.NewEmbeddingCache(a.Redis, time.Duration(cfg.Embedding.CacheTTLSec)*time.Second)
	}

	a.Knowledge = knowledge.NewBase(emb, knowledge.Options{
		ChunkSize: cfg.Knowledge.ChunkSize,
		TopK:      cfg.Knowledge.TopK,
		BatchSize: cfg.Knowledge.EmbedBatchSize,
		Workers:   cfg.Knowledge.EmbedWorkers,
		Cache:     embCache,
		Metrics:   a.Metrics,
	})

	monitorOpts := []wellbeing.Option{wellbeing.WithMetrics(a.Metrics)}
	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name, cfg.RabbitMQ.AlertQueue)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		monitorOpts = append(monitorOpts, wellbeing.WithAlertSink(
			rabbitmqClient.NewAlertPublisher(a.MQConn, cfg.RabbitMQ.AlertQueue),
		))
		a.AlertWorker = worker.NewFlagAlertWorker(a.MQConn, cfg.RabbitMQ.AlertQueue, nil)
		if err := a.AlertWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start alert worker failed: %w", err)
		}
	}
	a.Monitor = wellbeing.NewMonitor(wellbeing.NewVader(), wellbeing.NewLexicon(), a.Flags, monitorOpts...)

	a.Chat = app.NewChatService(a.LLM, a.Knowledge, a.Monitor, a.Interactions, app.ChatOptions{
		TopK:          cfg.Knowledge.TopK,
		ContextChunks: cfg.Knowledge.ContextChunks,
		Metrics:       a.Metrics,
	})
	a.Upload = app.NewUploadService(a.Knowledge)
	a.Dashboard = app.NewDashboardService(a.Flags, cfg.Wellbeing.RecentDays)
	a.Auth = app.NewAuthService(
		cfg.Auth.Enabled,
		cfg.Auth.InstructorUsername,
		cfg.Auth.InstructorPasswordHash,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)

	a.checkModel(ctx)
	return a, nil
}

// checkModel reports whether the language model is available and pulls it when asked to.
// The server starts either way; chat turns fall back to the apology until the model is up.
func (a *App) checkModel(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := a.LLM.Ready(checkCtx)
	if err == nil {
		log.Info().Str("provider", a.LLM.Provider()).Str("model", a.LLM.Model()).Msg("language model ready")
		return
	}

	puller, ok := a.LLM.(interface{ Pull(context.Context) error })
	if ok && a.Config.LLM.PullOnStart && errors.Is(err, ai.ErrModelNotAvailable) {
		log.Info().Str("model", a.LLM.Model()).Msg("pulling language model")
		if pullErr := puller.Pull(ctx); pullErr != nil {
			log.Error().Err(pullErr).Str("model", a.LLM.Model()).Msg("pull language model failed")
			return
		}
		log.Info().Str("model", a.LLM.Model()).Msg("language model pulled")
		return
	}
	log.Warn().Err(err).Str("provider", a.LLM.Provider()).Str("model", a.LLM.Model()).Msg("language model not ready")
}

func newLanguageModel(cfg config.LLMConfig) (LanguageModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return ai.NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	case "openai":
		return ai.NewOpenAICompatibleClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func newEmbedder(cfg config.EmbeddingConfig) (embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return ai.NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	case "openai":
		return ai.NewOpenAICompatibleClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "onnx":
		return ai.NewONNXEmbedder(cfg.ONNXModel, cfg.ONNXTokenizer, cfg.ONNXLibPath, cfg.ONNXDim, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.AlertWorker != nil {
		a.AlertWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if c, ok := a.Embedder.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
