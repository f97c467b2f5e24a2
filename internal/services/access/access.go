// Package services содержит политику доступа к содержимому курсов.
//
// Политика состоит из двух независимых проверок: "студент или администратор"
// для уроков и групп и "только чтение или администратор" для операций
// над курсами. Обе — чистые функции от пользователя, объекта и метода запроса;
// единственное состояние — реестр подписок и роль пользователя.
package services

import (
	"context"
	"net/http"

	"github.com/nstepano/course-platform/internal/models"
)

// AccessRepository определяет доступ к реестру подписок.
type AccessRepository interface {
	// AccessGranted сообщает, есть ли подписка с открытым доступом.
	AccessGranted(ctx context.Context, userUID string, courseID int) (bool, error)
}

// AccessService отвечает на вопрос "можно ли этому пользователю?".
type AccessService struct {
	repo AccessRepository
}

// NewAccessService создает новый экземпляр AccessService.
func NewAccessService(repo AccessRepository) *AccessService {
	return &AccessService{repo: repo}
}

// IsSafeMethod сообщает, является ли HTTP-метод безопасным (без побочных эффектов).
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ReadOnlyOrAdmin — проверка для операций над курсами: администратору можно
// всё, остальным — только чтение. Работает и для анонимных запросов.
func ReadOnlyOrAdmin(role, method string) bool {
	return role == models.RoleAdmin || IsSafeMethod(method)
}

// StudentOrAdmin — проверка уровня коллекции для уроков: администратор
// проходит всегда, остальным достаточно быть аутентифицированными.
func StudentOrAdmin(role, userUID string) bool {
	return role == models.RoleAdmin || userUID != ""
}

// CanAccessCourseContent — проверка уровня объекта для содержимого курса:
// администратор проходит всегда, студенту нужна подписка на курс объекта
// с access_granted = true.
func (s *AccessService) CanAccessCourseContent(ctx context.Context, role, userUID string, courseID int) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	if userUID == "" {
		return false, nil
	}
	return s.repo.AccessGranted(ctx, userUID, courseID)
}
