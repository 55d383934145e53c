// Package plantswap предоставляет маршруты для основного приложения.
package plantswap

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/greenbarter/plantswap/internal/http/handlers/admin/approve"
	"github.com/greenbarter/plantswap/internal/http/handlers/admin/bulkapprove"
	"github.com/greenbarter/plantswap/internal/http/handlers/admin/grantcredits"
	"github.com/greenbarter/plantswap/internal/http/handlers/admin/pendinglist"
	"github.com/greenbarter/plantswap/internal/http/handlers/admin/stats"
	"github.com/greenbarter/plantswap/internal/http/handlers/auth/login"
	"github.com/greenbarter/plantswap/internal/http/handlers/auth/register"
	"github.com/greenbarter/plantswap/internal/http/handlers/credit/credithistory"
	"github.com/greenbarter/plantswap/internal/http/handlers/credit/topup"
	"github.com/greenbarter/plantswap/internal/http/handlers/payment/paymentwebhook"
	"github.com/greenbarter/plantswap/internal/http/handlers/plant/marketplace"
	"github.com/greenbarter/plantswap/internal/http/handlers/plant/plantcreate"
	"github.com/greenbarter/plantswap/internal/http/handlers/plant/plantlist"
	"github.com/greenbarter/plantswap/internal/http/handlers/plant/plantread"
	"github.com/greenbarter/plantswap/internal/http/handlers/plant/plantremove"
	"github.com/greenbarter/plantswap/internal/http/handlers/subscription/subcancel"
	"github.com/greenbarter/plantswap/internal/http/handlers/subscription/subcreate"
	"github.com/greenbarter/plantswap/internal/http/handlers/subscription/subinfo"
	"github.com/greenbarter/plantswap/internal/http/handlers/swap/swapcreate"
	"github.com/greenbarter/plantswap/internal/http/handlers/swap/swaplist"
	"github.com/greenbarter/plantswap/internal/http/handlers/swap/swapupdate"
	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	authservice "github.com/greenbarter/plantswap/internal/services/auth"
	creditservice "github.com/greenbarter/plantswap/internal/services/credit"
	paymentservice "github.com/greenbarter/plantswap/internal/services/payment"
	plantservice "github.com/greenbarter/plantswap/internal/services/plant"
	swapservice "github.com/greenbarter/plantswap/internal/services/swap"
)

// Services собирает сервисы приложения для регистрации маршрутов.
type Services struct {
	Auth    *authservice.Service
	Plant   *plantservice.Service
	Swap    *swapservice.Service
	Credit  *creditservice.Service
	Payment *paymentservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services, webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Webhook платёжного провайдера: аутентификация по подписи тела
		r.Post("/payments/webhook", paymentwebhook.New(logger, s.Payment, webhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/plants", plantcreate.New(logger, s.Plant).ServeHTTP)
			r.Get("/plants", plantlist.New(logger, s.Plant).ServeHTTP)
			r.Get("/plants/{id}", plantread.New(logger, s.Plant).ServeHTTP)
			r.Delete("/plants/{id}", plantremove.New(logger, s.Plant).ServeHTTP)
			r.Get("/marketplace", marketplace.New(logger, s.Plant).ServeHTTP)

			r.Post("/swaps", swapcreate.New(logger, s.Swap).ServeHTTP)
			r.Post("/swaps/decision", swapupdate.New(logger, s.Swap).ServeHTTP)
			r.Get("/swaps", swaplist.New(logger, s.Swap).ServeHTTP)

			r.Get("/credits/history", credithistory.New(logger, s.Credit).ServeHTTP)
			r.Post("/credits/topup", topup.New(logger, s.Payment).ServeHTTP)

			r.Post("/subscription", subcreate.New(logger, s.Payment).ServeHTTP)
			r.Post("/subscription/cancel", subcancel.New(logger, s.Payment).ServeHTTP)
			r.Get("/subscription", subinfo.New(logger, s.Payment).ServeHTTP)

			// Группа администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/admin/plants/pending", pendinglist.New(logger, s.Plant).ServeHTTP)
				r.Post("/admin/plants/approve", approve.New(logger, s.Plant).ServeHTTP)
				r.Post("/admin/plants/bulk-approve", bulkapprove.New(logger, s.Plant).ServeHTTP)
				r.Get("/admin/stats", stats.New(logger, s.Plant).ServeHTTP)
				r.Post("/admin/credits/grant", grantcredits.New(logger, s.Credit).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
