// Package courseplatform собирает приложение платформы онлайн-курсов:
// хранилище, кеш, брокер сообщений, сервисы и HTTP-сервер.
package courseplatform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/nstepano/course-platform/internal/cache"
	"github.com/nstepano/course-platform/internal/config"
	"github.com/nstepano/course-platform/internal/lib/jwt"
	"github.com/nstepano/course-platform/internal/lib/sl"
	"github.com/nstepano/course-platform/internal/migrations"
	"github.com/nstepano/course-platform/internal/rabbitmq"
	accessservice "github.com/nstepano/course-platform/internal/services/access"
	authservice "github.com/nstepano/course-platform/internal/services/auth"
	catalogservice "github.com/nstepano/course-platform/internal/services/catalog"
	ledgerservice "github.com/nstepano/course-platform/internal/services/ledger"
	purchaseservice "github.com/nstepano/course-platform/internal/services/purchase"
	"github.com/nstepano/course-platform/internal/storage"
)

// App агрегирует долгоживущие ресурсы приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	amqp   *amqp.Connection
}

// New инициализирует все зависимости приложения и готовит HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Без брокера приложение работает, но события покупок не публикуются.
	var publisher *rabbitmq.Publisher
	conn, err := rabbitmq.Connect(cfg.RabbitMQConnection, 5, 2*time.Second)
	if err != nil {
		logger.Warn("rabbitmq is unavailable, purchase events disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn)
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker)
	catalogService := catalogservice.NewCatalogService(db, cacheRedis, logger)
	ledgerService := ledgerservice.NewLedgerService(db, logger)
	accessService := accessservice.NewAccessService(db)
	purchaseService := purchaseservice.NewPurchaseService(db, nil, logger)
	if publisher != nil {
		purchaseService = purchaseservice.NewPurchaseService(db, publisher, logger)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:     authService,
		Catalog:  catalogService,
		Ledger:   ledgerService,
		Access:   accessService,
		Purchase: purchaseService,
		Health:   db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   conn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.amqp != nil {
			_ = a.amqp.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
