// Package plantswap собирает HTTP-приложение маркетплейса: хранилище,
// кеш, брокер уведомлений, сервисы и маршруты.
package plantswap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/greenbarter/plantswap/internal/cache"
	"github.com/greenbarter/plantswap/internal/config"
	"github.com/greenbarter/plantswap/internal/lib/jwt"
	"github.com/greenbarter/plantswap/internal/lib/rabbitmq"
	"github.com/greenbarter/plantswap/internal/migrations"
	"github.com/greenbarter/plantswap/internal/paymentprovider"
	authservice "github.com/greenbarter/plantswap/internal/services/auth"
	creditservice "github.com/greenbarter/plantswap/internal/services/credit"
	notifierservice "github.com/greenbarter/plantswap/internal/services/notifier"
	paymentservice "github.com/greenbarter/plantswap/internal/services/payment"
	plantservice "github.com/greenbarter/plantswap/internal/services/plant"
	swapservice "github.com/greenbarter/plantswap/internal/services/swap"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
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

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.PaymentProvider.APIURL, cfg.PaymentProvider.SecretKey)

	notifier := notifierservice.New(amqpChannel, logger)
	authService := authservice.New(db, jwtMaker)
	plantService := plantservice.New(db, cacheRedis, logger)
	swapService := swapservice.New(db, notifier, logger)
	creditService := creditservice.New(db, logger)
	paymentService := paymentservice.New(db, providerClient, notifier, cfg.PaymentProvider, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:    authService,
		Plant:   plantService,
		Swap:    swapService,
		Credit:  creditService,
		Payment: paymentService,
	}, cfg.PaymentProvider.WebhookSecret)

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
		amqp:   amqpConn,
	}, nil
}

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
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		if closeErr := a.amqp.Close(); closeErr != nil {
			a.logger.Error("failed to close amqp connection", slog.Any("err", closeErr))
		}
		return err
	}
}
