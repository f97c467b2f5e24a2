// Package courseplatform предоставляет маршруты для основного приложения.
package courseplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/nstepano/course-platform/internal/http/handlers/auth/login"
	"github.com/nstepano/course-platform/internal/http/handlers/auth/register"
	balanceread "github.com/nstepano/course-platform/internal/http/handlers/balance/read"
	coursecreate "github.com/nstepano/course-platform/internal/http/handlers/course/create"
	courselist "github.com/nstepano/course-platform/internal/http/handlers/course/list"
	coursepatch "github.com/nstepano/course-platform/internal/http/handlers/course/patch"
	coursepay "github.com/nstepano/course-platform/internal/http/handlers/course/pay"
	courseread "github.com/nstepano/course-platform/internal/http/handlers/course/read"
	courseremove "github.com/nstepano/course-platform/internal/http/handlers/course/remove"
	courseupdate "github.com/nstepano/course-platform/internal/http/handlers/course/update"
	groupcreate "github.com/nstepano/course-platform/internal/http/handlers/group/create"
	grouplist "github.com/nstepano/course-platform/internal/http/handlers/group/list"
	groupread "github.com/nstepano/course-platform/internal/http/handlers/group/read"
	groupremove "github.com/nstepano/course-platform/internal/http/handlers/group/remove"
	groupupdate "github.com/nstepano/course-platform/internal/http/handlers/group/update"
	"github.com/nstepano/course-platform/internal/http/handlers/health"
	lessoncreate "github.com/nstepano/course-platform/internal/http/handlers/lesson/create"
	lessonlist "github.com/nstepano/course-platform/internal/http/handlers/lesson/list"
	lessonread "github.com/nstepano/course-platform/internal/http/handlers/lesson/read"
	lessonremove "github.com/nstepano/course-platform/internal/http/handlers/lesson/remove"
	lessonupdate "github.com/nstepano/course-platform/internal/http/handlers/lesson/update"
	"github.com/nstepano/course-platform/internal/http/middlewarectx"
	accessservice "github.com/nstepano/course-platform/internal/services/access"
	authservice "github.com/nstepano/course-platform/internal/services/auth"
	catalogservice "github.com/nstepano/course-platform/internal/services/catalog"
	ledgerservice "github.com/nstepano/course-platform/internal/services/ledger"
	purchaseservice "github.com/nstepano/course-platform/internal/services/purchase"
	"github.com/nstepano/course-platform/internal/storage"
)

// Services объединяет сервисы, необходимые маршрутам приложения.
type Services struct {
	Auth     *authservice.AuthService
	Catalog  *catalogservice.CatalogService
	Ledger   *ledgerservice.LedgerService
	Access   *accessservice.AccessService
	Purchase *purchaseservice.PurchaseService
	Health   *storage.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
//
// Чтение каталога курсов открыто всем. Запись каталога и группы доступны
// только администраторам. Уроки, баланс и покупка требуют аутентификации,
// доступ к урокам конкретного курса дополнительно проверяется подпиской.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Get("/courses", courselist.New(logger, svc.Catalog).ServeHTTP)
		r.Get("/courses/{id}", courseread.New(logger, svc.Catalog).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/balance", balanceread.New(logger, svc.Ledger).ServeHTTP)
			r.Post("/courses/{id}/pay", coursepay.New(logger, svc.Purchase).ServeHTTP)

			// Уроки: политика "студент или администратор" на уровне коллекции
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.LessonPolicyMiddleware(logger))

				r.Post("/courses/{course_id}/lessons", lessoncreate.New(logger, svc.Catalog).ServeHTTP)
				r.Get("/courses/{course_id}/lessons", lessonlist.New(logger, svc.Catalog).ServeHTTP)
				r.Get("/courses/{course_id}/lessons/{id}", lessonread.New(logger, svc.Catalog, svc.Access).ServeHTTP)
				r.Put("/courses/{course_id}/lessons/{id}", lessonupdate.New(logger, svc.Catalog, svc.Access).ServeHTTP)
				r.Delete("/courses/{course_id}/lessons/{id}", lessonremove.New(logger, svc.Catalog, svc.Access).ServeHTTP)
			})

			// Мутации каталога курсов: политика "только чтение или администратор"
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.CoursePolicyMiddleware(logger))

				r.Post("/courses", coursecreate.New(logger, svc.Catalog).ServeHTTP)
				r.Put("/courses/{id}", courseupdate.New(logger, svc.Catalog).ServeHTTP)
				r.Patch("/courses/{id}", coursepatch.New(logger, svc.Catalog).ServeHTTP)
				r.Delete("/courses/{id}", courseremove.New(logger, svc.Catalog).ServeHTTP)
			})

			// Группы: только для администраторов
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireStaffMiddleware(logger))

				r.Post("/courses/{course_id}/groups", groupcreate.New(logger, svc.Catalog).ServeHTTP)
				r.Get("/courses/{course_id}/groups", grouplist.New(logger, svc.Catalog).ServeHTTP)
				r.Get("/courses/{course_id}/groups/{id}", groupread.New(logger, svc.Catalog).ServeHTTP)
				r.Put("/courses/{course_id}/groups/{id}", groupupdate.New(logger, svc.Catalog).ServeHTTP)
				r.Delete("/courses/{course_id}/groups/{id}", groupremove.New(logger, svc.Catalog).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, svc.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
