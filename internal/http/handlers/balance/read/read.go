// Package read реализует HTTP-обработчик для чтения баланса пользователя.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/nstepano/course-platform/internal/http/middlewarectx"
	"github.com/nstepano/course-platform/internal/http/response"
	"github.com/nstepano/course-platform/internal/lib/sl"
	"github.com/nstepano/course-platform/internal/models"
)

// Response содержит текущий баланс пользователя.
type Response struct {
	UserUID string          `json:"user_uid"`
	Balance decimal.Decimal `json:"balance"`
}

// Handler управляет HTTP-запросами на чтение баланса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики баланса.
type Service interface {
	GetBalance(ctx context.Context, userUID string) (decimal.Decimal, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Баланс пользователя
// @Description Возвращает текущий баланс бонусного счета пользователя.
// @Tags Balance
// @Produce  json
// @Success 200 {object} Response "Текущий баланс"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /balance [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.balance.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userUID)
	if errors.Is(err, models.ErrUserNotFound) {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to read balance", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read balance"))
		return
	}

	render.JSON(w, r, Response{UserUID: userUID, Balance: balance})
}
