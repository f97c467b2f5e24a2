// Package pay реализует HTTP-обработчик покупки доступа к курсу.
//
// Handler извлекает UID пользователя из контекста, вызывает воркфлоу покупки
// и возвращает созданную подписку со статусом 201. Ошибки покупки
// (курс не найден, подписка уже есть, недостаточно средств) транслируются
// в соответствующие HTTP-статусы с человекочитаемым detail.
package pay

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

// Сообщения об ошибках покупки, видимые пользователю.
const (
	MsgAlreadySubscribed = "Вы уже подписаны на этот курс."
	MsgInsufficientFunds = "Недостаточно средств на балансе."
	MsgCourseNotFound    = "Курс не найден."
)

// Handler управляет HTTP-запросами на покупку курса.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Воркфлоу покупки курса
}

// Service описывает интерфейс воркфлоу покупки.
type Service interface {
	Pay(ctx context.Context, userUID string, courseID int) (*models.SubscriptionInfo, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Покупка доступа к курсу
// @Description Списывает цену курса с баланса бонусных баллов и создает подписку с открытым доступом.
// @Tags Courses
// @Produce  json
// @Param id path int true "ID курса"
// @Success 201 {object} models.SubscriptionInfo "Созданная подписка"
// @Failure 400 {object} response.ErrorResponse "Подписка уже существует или недостаточно средств"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /courses/{id}/pay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.pay"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	info, err := h.service.Pay(r.Context(), userUID, courseID)
	switch {
	case errors.Is(err, models.ErrCourseNotFound):
		log.Info("course not found", slog.Int("course_id", courseID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgCourseNotFound))
		return
	case errors.Is(err, models.ErrAlreadySubscribed):
		log.Info("already subscribed", slog.Int("course_id", courseID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(MsgAlreadySubscribed))
		return
	case errors.Is(err, models.ErrInsufficientFunds):
		log.Info("insufficient funds", slog.Int("course_id", courseID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(MsgInsufficientFunds))
		return
	case err != nil:
		log.Error("failed to pay for course", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not complete purchase"))
		return
	}

	log.Info("success to purchase course", slog.Int("subscription_id", info.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, info)
}
