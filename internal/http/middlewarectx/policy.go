package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/nstepano/course-platform/internal/http/response"
	services "github.com/nstepano/course-platform/internal/services/access"
)

// CoursePolicyMiddleware применяет к маршрутам курсов политику
// "только чтение или администратор". Должен стоять после JWTMiddleware.
func CoursePolicyMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(Role).(string)
			if !services.ReadOnlyOrAdmin(role, r.Method) {
				log.Error("course write denied",
					slog.String("role", role),
					slog.String("method", r.Method))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LessonPolicyMiddleware применяет к маршрутам уроков политику уровня
// коллекции "студент или администратор". Доступ к урокам конкретного
// курса дополнительно проверяется обработчиками по подписке.
func LessonPolicyMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(Role).(string)
			userUID, _ := r.Context().Value(UserUID).(string)
			if !services.StudentOrAdmin(role, userUID) {
				log.Error("lesson access denied", slog.String("role", role))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
