package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nstepano/course-platform/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateCourse(ctx context.Context, course models.Course) (int, error) {
	args := m.Called(ctx, course)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}
func (m *RepoMock) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Course), args.Error(1)
}
func (m *RepoMock) UpdateCourse(ctx context.Context, course models.Course, id int) (int, error) {
	args := m.Called(ctx, course, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveCourse(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CreateLesson(ctx context.Context, lesson models.Lesson) (int, error) {
	args := m.Called(ctx, lesson)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetLesson(ctx context.Context, courseID, id int) (*models.Lesson, error) {
	args := m.Called(ctx, courseID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lesson), args.Error(1)
}
func (m *RepoMock) ListLessons(ctx context.Context, courseID int) ([]*models.Lesson, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lesson), args.Error(1)
}
func (m *RepoMock) UpdateLesson(ctx context.Context, lesson models.Lesson, id int) (int, error) {
	args := m.Called(ctx, lesson, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveLesson(ctx context.Context, courseID, id int) (int, error) {
	args := m.Called(ctx, courseID, id)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CreateGroup(ctx context.Context, group models.Group) (int, error) {
	args := m.Called(ctx, group)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetGroup(ctx context.Context, courseID, id int) (*models.Group, error) {
	args := m.Called(ctx, courseID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}
func (m *RepoMock) ListGroups(ctx context.Context, courseID int) ([]*models.Group, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Group), args.Error(1)
}
func (m *RepoMock) UpdateGroup(ctx context.Context, group models.Group, id int) (int, error) {
	args := m.Called(ctx, group, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveGroup(ctx context.Context, courseID, id int) (int, error) {
	args := m.Called(ctx, courseID, id)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func validDummyCourse() models.DummyCourse {
	return models.DummyCourse{
		Title:     "Go с нуля",
		StartDate: "2025-09-01T10:00:00",
		Price:     "300.00",
	}
}

func TestCatalogService_CreateCourse(t *testing.T) {
	const authorUID = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"

	t.Run("успешное создание курса", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("CreateCourse", mock.Anything, mock.AnythingOfType("models.Course")).Return(42, nil)
		cache.On("Set", "course:42", mock.Anything, time.Hour).Return(nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		course, err := svc.CreateCourse(context.Background(), authorUID, validDummyCourse())

		require.NoError(t, err)
		assert.Equal(t, 42, course.ID)
		assert.Equal(t, authorUID, course.AuthorUID)
		assert.True(t, course.Price.Equal(decimal.RequireFromString("300.00")))
		assert.True(t, course.IsAvailable)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("некорректная дата начала", func(t *testing.T) {
		req := validDummyCourse()
		req.StartDate = "01.09.2025"

		svc := NewCatalogService(new(RepoMock), new(CacheMock), newNoopLogger())
		_, err := svc.CreateCourse(context.Background(), authorUID, req)

		assert.Error(t, err)
	})

	t.Run("некорректная цена", func(t *testing.T) {
		req := validDummyCourse()
		req.Price = "three hundred"

		svc := NewCatalogService(new(RepoMock), new(CacheMock), newNoopLogger())
		_, err := svc.CreateCourse(context.Background(), authorUID, req)

		assert.Error(t, err)
	})

	t.Run("отрицательная цена отклоняется", func(t *testing.T) {
		req := validDummyCourse()
		req.Price = "-1.00"

		svc := NewCatalogService(new(RepoMock), new(CacheMock), newNoopLogger())
		_, err := svc.CreateCourse(context.Background(), authorUID, req)

		assert.Error(t, err)
	})

	t.Run("явный флаг is_available сохраняется", func(t *testing.T) {
		notAvailable := false
		req := validDummyCourse()
		req.IsAvailable = &notAvailable

		repo := new(RepoMock)
		cache := new(CacheMock)
		var stored models.Course
		repo.On("CreateCourse", mock.Anything, mock.AnythingOfType("models.Course")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(models.Course) }).
			Return(43, nil)
		cache.On("Set", "course:43", mock.Anything, time.Hour).Return(nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		_, err := svc.CreateCourse(context.Background(), authorUID, req)

		require.NoError(t, err)
		assert.False(t, stored.IsAvailable)
	})
}

func TestCatalogService_GetCourse(t *testing.T) {
	course := &models.Course{ID: 42, Title: "Go с нуля", Price: decimal.RequireFromString("300.00")}

	t.Run("попадание в кеш не трогает хранилище", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "course:42", mock.Anything).
			Run(func(args mock.Arguments) {
				ptr := args.Get(1).(**models.Course)
				*ptr = course
			}).
			Return(true, nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		got, err := svc.GetCourse(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, "Go с нуля", got.Title)
		repo.AssertNotCalled(t, "GetCourse")
	})

	t.Run("промах кеша идет в хранилище и кеширует", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "course:42", mock.Anything).Return(false, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(course, nil)
		cache.On("Set", "course:42", course, time.Hour).Return(nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		got, err := svc.GetCourse(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, 42, got.ID)
		cache.AssertExpectations(t)
	})

	t.Run("несуществующий курс", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "course:9000", mock.Anything).Return(false, nil)
		repo.On("GetCourse", mock.Anything, 9000).Return(nil, models.ErrCourseNotFound)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		_, err := svc.GetCourse(context.Background(), 9000)

		assert.ErrorIs(t, err, models.ErrCourseNotFound)
	})
}

func TestCatalogService_UpdateCourse(t *testing.T) {
	t.Run("обновление несуществующего курса", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("UpdateCourse", mock.Anything, mock.AnythingOfType("models.Course"), 9000).Return(0, nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		_, err := svc.UpdateCourse(context.Background(), validDummyCourse(), 9000)

		assert.ErrorIs(t, err, models.ErrCourseNotFound)
	})

	t.Run("успешное обновление кеширует свежую версию", func(t *testing.T) {
		updated := &models.Course{ID: 42, Title: "Go с нуля", Price: decimal.RequireFromString("350.00")}
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("UpdateCourse", mock.Anything, mock.AnythingOfType("models.Course"), 42).Return(1, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(updated, nil)
		cache.On("Set", "course:42", updated, time.Hour).Return(nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		got, err := svc.UpdateCourse(context.Background(), validDummyCourse(), 42)

		require.NoError(t, err)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("350.00")))
		cache.AssertExpectations(t)
	})
}

func TestCatalogService_PatchCourse(t *testing.T) {
	current := &models.Course{
		ID:          42,
		Title:       "Go с нуля",
		StartDate:   time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		Price:       decimal.RequireFromString("300.00"),
		IsAvailable: true,
	}

	t.Run("неприсланные поля сохраняют текущие значения", func(t *testing.T) {
		title := "Go для продолжающих"
		repo := new(RepoMock)
		cache := new(CacheMock)
		var stored models.Course
		repo.On("GetCourse", mock.Anything, 42).Return(current, nil)
		repo.On("UpdateCourse", mock.Anything, mock.AnythingOfType("models.Course"), 42).
			Run(func(args mock.Arguments) { stored = args.Get(1).(models.Course) }).
			Return(1, nil)
		cache.On("Set", "course:42", mock.Anything, time.Hour).Return(nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		got, err := svc.PatchCourse(context.Background(), models.CoursePatch{Title: &title}, 42)

		require.NoError(t, err)
		assert.Equal(t, "Go для продолжающих", got.Title)
		assert.Equal(t, "Go для продолжающих", stored.Title)
		assert.True(t, stored.Price.Equal(decimal.RequireFromString("300.00")))
		assert.True(t, stored.IsAvailable)
		assert.Equal(t, current.StartDate, stored.StartDate)
		cache.AssertExpectations(t)
	})

	t.Run("частичное обновление цены и доступности", func(t *testing.T) {
		price := "350.00"
		notAvailable := false
		repo := new(RepoMock)
		cache := new(CacheMock)
		var stored models.Course
		repo.On("GetCourse", mock.Anything, 42).Return(current, nil)
		repo.On("UpdateCourse", mock.Anything, mock.AnythingOfType("models.Course"), 42).
			Run(func(args mock.Arguments) { stored = args.Get(1).(models.Course) }).
			Return(1, nil)
		cache.On("Set", "course:42", mock.Anything, time.Hour).Return(nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		_, err := svc.PatchCourse(context.Background(),
			models.CoursePatch{Price: &price, IsAvailable: &notAvailable}, 42)

		require.NoError(t, err)
		assert.True(t, stored.Price.Equal(decimal.RequireFromString("350.00")))
		assert.False(t, stored.IsAvailable)
		assert.Equal(t, "Go с нуля", stored.Title)
	})

	t.Run("несуществующий курс", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetCourse", mock.Anything, 9000).Return(nil, models.ErrCourseNotFound)

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		_, err := svc.PatchCourse(context.Background(), models.CoursePatch{}, 9000)

		assert.ErrorIs(t, err, models.ErrCourseNotFound)
	})

	t.Run("некорректная цена отклоняется до записи", func(t *testing.T) {
		price := "-1.00"
		repo := new(RepoMock)
		repo.On("GetCourse", mock.Anything, 42).Return(current, nil)

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		_, err := svc.PatchCourse(context.Background(), models.CoursePatch{Price: &price}, 42)

		assert.Error(t, err)
		repo.AssertNotCalled(t, "UpdateCourse")
	})
}

func TestCatalogService_RemoveCourse(t *testing.T) {
	t.Run("удаление инвалидирует кеш", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Invalidate", "course:42").Return(nil)
		repo.On("RemoveCourse", mock.Anything, 42).Return(1, nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		require.NoError(t, svc.RemoveCourse(context.Background(), 42))
		cache.AssertExpectations(t)
	})

	t.Run("удаление несуществующего курса", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Invalidate", "course:9000").Return(nil)
		repo.On("RemoveCourse", mock.Anything, 9000).Return(0, nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		err := svc.RemoveCourse(context.Background(), 9000)

		assert.ErrorIs(t, err, models.ErrCourseNotFound)
	})
}

func TestCatalogService_Lessons(t *testing.T) {
	course := &models.Course{ID: 42, Title: "Go с нуля"}

	t.Run("создание урока в несуществующем курсе", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "course:9000", mock.Anything).Return(false, nil)
		repo.On("GetCourse", mock.Anything, 9000).Return(nil, models.ErrCourseNotFound)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		_, err := svc.CreateLesson(context.Background(), 9000, models.DummyLesson{Title: "Интро", Link: "https://example.com/1"})

		assert.ErrorIs(t, err, models.ErrCourseNotFound)
		repo.AssertNotCalled(t, "CreateLesson")
	})

	t.Run("успешное создание урока", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "course:42", mock.Anything).Return(false, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(course, nil)
		cache.On("Set", "course:42", course, time.Hour).Return(nil)
		repo.On("CreateLesson", mock.Anything, mock.AnythingOfType("models.Lesson")).Return(5, nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		lesson, err := svc.CreateLesson(context.Background(), 42, models.DummyLesson{Title: "Интро", Link: "https://example.com/1"})

		require.NoError(t, err)
		assert.Equal(t, 5, lesson.ID)
		assert.Equal(t, 42, lesson.CourseID)
	})

	t.Run("обновление несуществующего урока", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("UpdateLesson", mock.Anything, mock.AnythingOfType("models.Lesson"), 5).Return(0, nil)

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		_, err := svc.UpdateLesson(context.Background(), 42, 5, models.DummyLesson{Title: "Интро", Link: "https://example.com/1"})

		assert.ErrorIs(t, err, models.ErrLessonNotFound)
	})

	t.Run("удаление урока", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("RemoveLesson", mock.Anything, 42, 5).Return(1, nil)

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		require.NoError(t, svc.RemoveLesson(context.Background(), 42, 5))
	})
}

func TestCatalogService_Groups(t *testing.T) {
	course := &models.Course{ID: 42, Title: "Go с нуля"}
	students := []string{"1b4e28ba-2fa1-11d2-883f-0016d3cca427"}

	t.Run("создание группы", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", "course:42", mock.Anything).Return(false, nil)
		repo.On("GetCourse", mock.Anything, 42).Return(course, nil)
		cache.On("Set", "course:42", course, time.Hour).Return(nil)
		repo.On("CreateGroup", mock.Anything, mock.AnythingOfType("models.Group")).Return(3, nil)

		svc := NewCatalogService(repo, cache, newNoopLogger())
		group, err := svc.CreateGroup(context.Background(), 42, models.DummyGroup{Title: "Поток 1", StudentUIDs: students})

		require.NoError(t, err)
		assert.Equal(t, 3, group.ID)
		assert.Equal(t, students, group.StudentUIDs)
	})

	t.Run("обновление несуществующей группы", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("UpdateGroup", mock.Anything, mock.AnythingOfType("models.Group"), 9000).Return(0, nil)

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		_, err := svc.UpdateGroup(context.Background(), 42, 9000, models.DummyGroup{Title: "Поток 1"})

		assert.ErrorIs(t, err, models.ErrGroupNotFound)
	})

	t.Run("удаление несуществующей группы", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("RemoveGroup", mock.Anything, 42, 9000).Return(0, nil)

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		err := svc.RemoveGroup(context.Background(), 42, 9000)

		assert.ErrorIs(t, err, models.ErrGroupNotFound)
	})
}
