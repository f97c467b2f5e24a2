package models

import "errors"

// Ошибки доменного уровня. Хранилище и сервисы возвращают их обёрнутыми
// через %w, HTTP-обработчики сопоставляют их со статусами ответов.
var (
	// ErrCourseNotFound — запрошенный курс не существует.
	ErrCourseNotFound = errors.New("course not found")
	// ErrLessonNotFound — запрошенный урок не существует.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrGroupNotFound — запрошенная группа не существует.
	ErrGroupNotFound = errors.New("group not found")
	// ErrUserNotFound — пользователь не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadySubscribed — у пользователя уже есть запись подписки на курс,
	// независимо от значения access_granted.
	ErrAlreadySubscribed = errors.New("subscription already exists")
	// ErrInsufficientFunds — баланса недостаточно для списания.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUserExists — пользователь с таким username или email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
)
