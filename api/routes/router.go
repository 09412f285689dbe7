package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denr-penro-mrq/permittree-backend/api/controllers"
	"github.com/denr-penro-mrq/permittree-backend/api/middleware"
	"github.com/denr-penro-mrq/permittree-backend/internal/notifications"
	"github.com/denr-penro-mrq/permittree-backend/internal/oop"
	"github.com/denr-penro-mrq/permittree-backend/internal/permits"
	"github.com/denr-penro-mrq/permittree-backend/pkg/config"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
	"github.com/denr-penro-mrq/permittree-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	permitsService permits.Service,
	oopService oop.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/permits", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.RoleApplicant)).
				Post("/", controllers.CreatePermit(permitsService, logg))
			r.Get("/", controllers.ListPermits(permitsService, logg))

			r.Route("/{permitId}", func(r chi.Router) {
				r.Get("/", controllers.GetPermit(permitsService, logg))
				r.Post("/actions", controllers.ApplyPermitAction(permitsService, logg))
				r.Get("/allowed-actions", controllers.AllowedPermitActions(permitsService, logg))

				r.Route("/oop", func(r chi.Router) {
					r.Get("/", controllers.GetOOP(oopService, logg))
					r.With(middleware.RequireRole(logg, enums.RoleAccountant, enums.RoleChiefRPS)).
						Put("/items", controllers.UpdateOOPItems(oopService, logg))
					r.With(middleware.RequireRole(logg, enums.RoleChiefRPS, enums.RoleChiefTSD)).
						Post("/sign", controllers.SignOOP(oopService, logg))
					r.With(middleware.RequireRole(logg, enums.RolePENRCENROfficer)).
						Post("/approve", controllers.ApproveOOP(oopService, logg))
					r.With(middleware.RequireRole(logg, enums.RoleAccountant)).
						Post("/request-payment", controllers.RequestOOPPayment(oopService, logg))
					r.With(middleware.RequireRole(logg, enums.RoleApplicant)).
						Post("/payment-proof", controllers.SubmitOOPPaymentProof(oopService, logg))
					r.With(middleware.RequireRole(logg, enums.RoleAccountant)).
						Post("/payment-proof/review", controllers.ReviewOOPPaymentProof(oopService, logg))
				})
			})
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
