package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nstepano/course-platform/internal/models"
	"github.com/nstepano/course-platform/internal/rabbitmq"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) PayCourse(ctx context.Context, userUID string, courseID int, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, courseID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(exchange, routingKey string, message any) error {
	return m.Called(exchange, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPurchaseService_Pay(t *testing.T) {
	const userUID = "0b7ffb76-77a7-4ad8-9a5c-ec22a1a1c1a1"
	subDate := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	user := &models.User{
		UID:      userUID,
		Username: "student",
		Email:    "student@example.com",
		Role:     models.RoleUser,
		IsActive: true,
	}
	course := &models.Course{
		ID:          42,
		Title:       "Go с нуля",
		Price:       decimal.RequireFromString("300.00"),
		IsAvailable: true,
	}
	sub := &models.Subscription{
		ID:               7,
		UserUID:          userUID,
		CourseID:         42,
		AccessGranted:    true,
		SubscriptionDate: subDate,
	}

	t.Run("успешная покупка собирает подписку и публикует событие", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("PayCourse", mock.Anything, userUID, 42, mock.AnythingOfType("time.Time")).Return(sub, nil)
		repo.On("GetUserByUID", mock.Anything, userUID).Return(user, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(course, nil)
		pub.On("Publish", rabbitmq.PurchasesExchange, rabbitmq.CompletedRoutingKey,
			mock.AnythingOfType("services.PurchaseCompletedEvent")).Return(nil)

		svc := NewPurchaseService(repo, pub, newNoopLogger())
		info, err := svc.Pay(context.Background(), userUID, 42)

		require.NoError(t, err)
		assert.Equal(t, 7, info.ID)
		assert.Equal(t, "student", info.User.Username)
		assert.Equal(t, "Go с нуля", info.Course.Title)
		assert.True(t, info.AccessGranted)
		assert.Equal(t, "2025-06-01T12:00:00", info.SubscriptionDate)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("ошибка публикации события не ломает покупку", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("PayCourse", mock.Anything, userUID, 42, mock.AnythingOfType("time.Time")).Return(sub, nil)
		repo.On("GetUserByUID", mock.Anything, userUID).Return(user, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(course, nil)
		pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

		svc := NewPurchaseService(repo, pub, newNoopLogger())
		info, err := svc.Pay(context.Background(), userUID, 42)

		require.NoError(t, err)
		assert.Equal(t, 7, info.ID)
	})

	t.Run("без брокера покупка работает", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("PayCourse", mock.Anything, userUID, 42, mock.AnythingOfType("time.Time")).Return(sub, nil)
		repo.On("GetUserByUID", mock.Anything, userUID).Return(user, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(course, nil)

		svc := NewPurchaseService(repo, nil, newNoopLogger())
		info, err := svc.Pay(context.Background(), userUID, 42)

		require.NoError(t, err)
		assert.Equal(t, 7, info.ID)
	})

	t.Run("ошибка обогащения после фиксации покупки не ломает ответ", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("PayCourse", mock.Anything, userUID, 42, mock.AnythingOfType("time.Time")).Return(sub, nil)
		repo.On("GetUserByUID", mock.Anything, userUID).Return(nil, errors.New("connection reset"))
		repo.On("GetCourse", mock.Anything, 42).Return(nil, errors.New("connection reset"))

		svc := NewPurchaseService(repo, nil, newNoopLogger())
		info, err := svc.Pay(context.Background(), userUID, 42)

		require.NoError(t, err)
		assert.Equal(t, 7, info.ID)
		assert.Equal(t, userUID, info.User.UID)
		assert.Equal(t, 42, info.Course.ID)
		assert.True(t, info.AccessGranted)
		assert.Equal(t, "2025-06-01T12:00:00", info.SubscriptionDate)
	})

	t.Run("ошибки хранилища пробрасываются как есть", func(t *testing.T) {
		for _, storageErr := range []error{
			models.ErrCourseNotFound,
			models.ErrAlreadySubscribed,
			models.ErrInsufficientFunds,
		} {
			repo := new(RepoMock)
			repo.On("PayCourse", mock.Anything, userUID, 42, mock.AnythingOfType("time.Time")).Return(nil, storageErr)

			svc := NewPurchaseService(repo, nil, newNoopLogger())
			info, err := svc.Pay(context.Background(), userUID, 42)

			assert.Nil(t, info)
			assert.ErrorIs(t, err, storageErr)
		}
	})
}
