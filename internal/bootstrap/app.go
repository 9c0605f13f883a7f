package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gopherai-docchat/internal/ai"
	appsvc "gopherai-docchat/internal/app"
	"gopherai-docchat/internal/cache"
	"gopherai-docchat/internal/config"
	"gopherai-docchat/internal/logger"
	"gopherai-docchat/internal/model"
	minioClient "gopherai-docchat/internal/platform/minio"
	mysqlClient "gopherai-docchat/internal/platform/mysql"
	qdrantClient "gopherai-docchat/internal/platform/qdrant"
	rabbitmqClient "gopherai-docchat/internal/platform/rabbitmq"
	redisClient "gopherai-docchat/internal/platform/redis"
	"gopherai-docchat/internal/rag"
	"gopherai-docchat/internal/repository"
	"gopherai-docchat/internal/tracing"
	"gopherai-docchat/internal/vectorstore"
	"gopherai-docchat/internal/vectorstore/memory"
	vsmysql "gopherai-docchat/internal/vectorstore/mysql"
	vsqdrant "gopherai-docchat/internal/vectorstore/qdrant"
	"gopherai-docchat/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Qdrant        *qdrant.Client
	SessionCache  *cache.SessionCache
	CleanupWorker *worker.CollectionCleanupWorker

	Documents *appsvc.DocumentService
	Sessions  *appsvc.SessionService
	Chat      *appsvc.ChatService

	shutdownTracing func(context.Context) error
	StartedAt       time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log := logger.New(cfg.Log.File, cfg.Log.Level, cfg.App.Env == "prod")
	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		log.Error("bootstrap failed", zap.Error(err))
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.Config, a.Logger

	shutdown, err := tracing.Init(ctx, cfg.App.Name, cfg.Tracing.Endpoint, cfg.Tracing.Enabled, log)
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown

	a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.Options{
		MaxOpenConns:  cfg.MySQL.MaxOpenConns,
		MaxIdleConns:  cfg.MySQL.MaxIdleConns,
		SlowThreshold: time.Duration(cfg.MySQL.SlowQueryMillis) * time.Millisecond,
	}, log)
	if err != nil {
		return err
	}
	if err := a.MySQL.AutoMigrate(&model.Document{}, &model.ChatSession{}, &model.Message{}, &model.DocumentChunk{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	a.Redis, err = redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	a.SessionCache = cache.NewSessionCache(a.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.CleanupQueue)
	if err != nil {
		return err
	}

	vectors, err := a.newVectorStore(ctx)
	if err != nil {
		return err
	}

	var archive appsvc.FileArchive
	if cfg.MinIO.Enabled {
		minioArchive, err := minioClient.New(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
		if err != nil {
			return err
		}
		archive = minioArchive
		log.Info("pdf archive enabled", zap.String("bucket", cfg.MinIO.Bucket))
	}

	llm := ai.NewOpenAICompatibleClient(ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Timeout:        time.Duration(cfg.LLM.RequestTimeoutSeconds) * time.Second,
	})

	docRepo := repository.NewDocumentRepository(a.MySQL)
	sessionRepo := repository.NewChatSessionRepository(a.MySQL)
	messageRepo := repository.NewMessageRepository(a.MySQL)

	a.Documents = appsvc.NewDocumentService(
		docRepo,
		vectors,
		llm,
		archive,
		rabbitmqClient.NewCleanupPublisher(a.MQConn, cfg.RabbitMQ.CleanupQueue),
		appsvc.IngestConfig{
			ChunkSize:          cfg.RAG.ChunkSize,
			ChunkOverlap:       cfg.RAG.ChunkOverlap,
			EmbeddingBatchSize: cfg.RAG.EmbeddingBatchSize,
			MaxBytes:           cfg.MaxUploadBytes(),
		},
		log,
	)
	a.Sessions = appsvc.NewSessionService(sessionRepo, messageRepo, docRepo, a.SessionCache, log)

	pipeline := rag.NewPipeline(docRepo, rag.NewRetriever(llm, vectors), llm, rag.Config{
		TopK:            cfg.RAG.TopK,
		HistoryWindow:   cfg.RAG.HistoryWindow,
		Temperature:     cfg.LLM.Temperature,
		RetrieveTimeout: cfg.RetrieveTimeout(),
		GenerateTimeout: cfg.GenerateTimeout(),
	})
	a.Chat = appsvc.NewChatService(a.Sessions, pipeline, log)

	a.CleanupWorker = worker.NewCollectionCleanupWorker(a.MQConn, a.Documents, cfg.RabbitMQ.CleanupQueue, log)
	if err := a.CleanupWorker.Start(ctx); err != nil {
		return fmt.Errorf("start cleanup worker failed: %w", err)
	}

	log.Info("bootstrap finished", zap.String("vector_backend", cfg.Vector.Backend))
	return nil
}

func (a *App) newVectorStore(ctx context.Context) (vectorstore.Store, error) {
	switch a.Config.Vector.Backend {
	case "qdrant":
		q := a.Config.Qdrant
		client, err := qdrantClient.New(ctx, q.Host, q.Port, q.APIKey, q.UseTLS)
		if err != nil {
			return nil, err
		}
		a.Qdrant = client
		return vsqdrant.NewStore(client), nil
	case "mysql":
		sqlDB, err := a.MySQL.DB()
		if err != nil {
			return nil, fmt.Errorf("get mysql sql db failed: %w", err)
		}
		return vsmysql.NewStore(repository.NewDocumentChunkRepository(a.MySQL), sqlDB), nil
	case "memory":
		a.Logger.Warn("in-memory vector index: collections are lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", a.Config.Vector.Backend)
	}
}

// HealthChecks lists the probes served on /healthz.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := a.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": a.SessionCache.Ping,
		"rabbitmq": func(context.Context) error {
			return rabbitmqClient.Ping(a.MQConn)
		},
		"vector": a.Documents.Ping,
	}
}

func (a *App) Close() error {
	var errs []error
	if a.CleanupWorker != nil {
		a.CleanupWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}
	if a.Qdrant != nil {
		if err := a.Qdrant.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close qdrant: %w", err))
		}
	}
	if a.MySQL != nil {
		if sqlDB, err := a.MySQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close mysql: %w", err))
			}
		}
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
