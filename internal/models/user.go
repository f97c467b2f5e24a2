// Package models содержит доменные структуры платформы онлайн-курсов:
// пользователей, баланс бонусных баллов, курсы, уроки, группы и подписки.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей. Роль admin соответствует флагу is_staff:
// администратор проходит все проверки доступа без подписки.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	IsActive     bool      // Активна ли учётная запись
	DateJoined   time.Time // Дата регистрации
}

// IsStaff сообщает, является ли пользователь администратором.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin
}

// UserSummary используется при сериализации вложенного пользователя
// в ответах API (например, внутри подписки).
type UserSummary struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}
