package models

import "time"

// Subscription представляет факт доступа пользователя к курсу.
// Пара (user, course) уникальна, запись создаётся только воркфлоу покупки
// и после создания не изменяется и не удаляется.
type Subscription struct {
	ID               int       // Идентификатор записи
	UserUID          string    // Покупатель
	CourseID         int       // Купленный курс
	AccessGranted    bool      // Открыт ли доступ к содержимому курса
	SubscriptionDate time.Time // Момент покупки, передаётся воркфлоу явно
}

// SubscriptionInfo — представление подписки во внешнем API: вложенные
// пользователь и курс, дата в формате TimeLayout.
type SubscriptionInfo struct {
	ID               int           `json:"id"`
	User             UserSummary   `json:"user"`
	Course           CourseSummary `json:"course"`
	AccessGranted    bool          `json:"access_granted"`
	SubscriptionDate string        `json:"subscription_date"`
}
