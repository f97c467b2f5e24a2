// Package services содержит воркфлоу покупки доступа к курсу.
//
// Покупка конвертирует баланс бонусных баллов в подписку: проверка курса,
// отсутствия существующей подписки и достатка средств, создание подписки
// с открытым доступом и списание цены выполняются хранилищем в одной
// транзакции. Момент покупки воркфлоу передаёт явно.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/nstepano/course-platform/internal/lib/sl"
	"github.com/nstepano/course-platform/internal/models"
	"github.com/nstepano/course-platform/internal/rabbitmq"
)

// PurchaseRepository определяет методы хранилища, используемые воркфлоу покупки.
type PurchaseRepository interface {
	// PayCourse атомарно создаёт подписку и списывает цену курса.
	PayCourse(ctx context.Context, userUID string, courseID int, now time.Time) (*models.Subscription, error)
	// GetUserByUID возвращает покупателя для сериализации ответа.
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	// GetCourse возвращает курс для сериализации ответа.
	GetCourse(ctx context.Context, id int) (*models.Course, error)
}

// EventPublisher публикует события в брокер сообщений.
type EventPublisher interface {
	Publish(exchange, routingKey string, message any) error
}

// PurchaseCompletedEvent — событие успешной покупки курса.
type PurchaseCompletedEvent struct {
	SubscriptionID   int    `json:"subscription_id"`
	UserUID          string `json:"user_uid"`
	CourseID         int    `json:"course_id"`
	Price            string `json:"price"`
	SubscriptionDate string `json:"subscription_date"`
}

// PurchaseService реализует воркфлоу покупки курса.
type PurchaseService struct {
	repo   PurchaseRepository
	events EventPublisher
	log    *slog.Logger
}

// NewPurchaseService создает новый экземпляр PurchaseService.
// events может быть nil, тогда события покупок не публикуются.
func NewPurchaseService(repo PurchaseRepository, events EventPublisher, log *slog.Logger) *PurchaseService {
	return &PurchaseService{
		repo:   repo,
		events: events,
		log:    log,
	}
}

// Pay покупает пользователю доступ к курсу и возвращает созданную подписку.
//
// Возвращает models.ErrCourseNotFound, models.ErrAlreadySubscribed или
// models.ErrInsufficientFunds, если покупка невозможна. Любая существующая
// запись подписки блокирует повторную покупку независимо от access_granted.
func (s *PurchaseService) Pay(ctx context.Context, userUID string, courseID int) (*models.SubscriptionInfo, error) {
	now := time.Now().UTC()

	sub, err := s.repo.PayCourse(ctx, userUID, courseID, now)
	if err != nil {
		return nil, err
	}
	s.log.Info("course purchased",
		slog.Int("subscription_id", sub.ID),
		slog.String("user_uid", userUID),
		slog.Int("course_id", courseID))

	// Подписка уже зафиксирована: ошибки загрузки данных для ответа
	// не отменяют покупку, ответ собирается из того, что известно.
	info := &models.SubscriptionInfo{
		ID:               sub.ID,
		User:             models.UserSummary{UID: userUID},
		Course:           models.CourseSummary{ID: courseID},
		AccessGranted:    sub.AccessGranted,
		SubscriptionDate: sub.SubscriptionDate.Format(models.TimeLayout),
	}

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to load user for purchase response", sl.Err(err))
	} else {
		info.User = models.UserSummary{
			UID:      user.UID,
			Username: user.Username,
			Email:    user.Email,
			IsActive: user.IsActive,
		}
	}

	var price string
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		s.log.Warn("failed to load course for purchase response", sl.Err(err))
	} else {
		info.Course = models.CourseSummary{
			ID:    course.ID,
			Title: course.Title,
		}
		price = course.Price.String()
	}

	if s.events != nil {
		event := PurchaseCompletedEvent{
			SubscriptionID:   sub.ID,
			UserUID:          userUID,
			CourseID:         courseID,
			Price:            price,
			SubscriptionDate: info.SubscriptionDate,
		}
		if err := s.events.Publish(rabbitmq.PurchasesExchange, rabbitmq.CompletedRoutingKey, event); err != nil {
			s.log.Warn("failed to publish purchase event", sl.Err(err))
		}
	}

	return info, nil
}
