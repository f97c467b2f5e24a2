// Package read реализует HTTP-обработчик для чтения урока курса.
//
// Доступ на уровне объекта определяется политикой "студент или администратор":
// администратор проходит всегда, студенту нужна подписка на курс урока
// с открытым доступом.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/nstepano/course-platform/internal/http/middlewarectx"
	"github.com/nstepano/course-platform/internal/http/response"
	"github.com/nstepano/course-platform/internal/lib/sl"
	"github.com/nstepano/course-platform/internal/models"
)

// Handler управляет HTTP-запросами на чтение урока.
type Handler struct {
	log     *slog.Logger
	service Service
	access  AccessChecker
}

// Service описывает интерфейс бизнес-логики чтения урока.
type Service interface {
	GetLesson(ctx context.Context, courseID, id int) (*models.Lesson, error)
}

// AccessChecker описывает проверку доступа к содержимому курса.
type AccessChecker interface {
	CanAccessCourseContent(ctx context.Context, role, userUID string, courseID int) (bool, error)
}

// New создает новый Handler с переданными логгером, сервисом и политикой доступа.
func New(log *slog.Logger, service Service, access AccessChecker) *Handler {
	return &Handler{
		log:     log,
		service: service,
		access:  access,
	}
}

// ServeHTTP godoc
// @Summary Получить урок
// @Description Возвращает урок курса. Студенту нужна подписка с открытым доступом.
// @Tags Lessons
// @Produce  json
// @Param course_id path int true "ID курса"
// @Param id path int true "ID урока"
// @Success 200 {object} models.Lesson "Урок"
// @Failure 403 {object} response.ErrorResponse "Нет доступа к курсу"
// @Failure 404 {object} response.ErrorResponse "Урок не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /courses/{course_id}/lessons/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lesson.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := strconv.Atoi(chi.URLParam(r, "course_id"))
	if err != nil {
		log.Error("failed to decode course_id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode course_id from url"))
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	allowed, err := h.access.CanAccessCourseContent(r.Context(), role, userUID, courseID)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check access"))
		return
	}
	if !allowed {
		log.Info("access to lesson denied", slog.Int("course_id", courseID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}

	lesson, err := h.service.GetLesson(r.Context(), courseID, id)
	if errors.Is(err, models.ErrLessonNotFound) {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("lesson not found"))
		return
	}
	if err != nil {
		log.Error("failed to read lesson", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read lesson"))
		return
	}

	render.JSON(w, r, lesson)
}
