// Package services содержит бизнес-логику каталога: курсы, уроки и группы.
// Чтение курсов кешируется в Redis, мутации инвалидируют кеш.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nstepano/course-platform/internal/models"
)

// CatalogRepository определяет методы для работы с каталогом в хранилище.
type CatalogRepository interface {
	CreateCourse(ctx context.Context, course models.Course) (int, error)
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error)
	UpdateCourse(ctx context.Context, course models.Course, id int) (int, error)
	RemoveCourse(ctx context.Context, id int) (int, error)

	CreateLesson(ctx context.Context, lesson models.Lesson) (int, error)
	GetLesson(ctx context.Context, courseID, id int) (*models.Lesson, error)
	ListLessons(ctx context.Context, courseID int) ([]*models.Lesson, error)
	UpdateLesson(ctx context.Context, lesson models.Lesson, id int) (int, error)
	RemoveLesson(ctx context.Context, courseID, id int) (int, error)

	CreateGroup(ctx context.Context, group models.Group) (int, error)
	GetGroup(ctx context.Context, courseID, id int) (*models.Group, error)
	ListGroups(ctx context.Context, courseID int) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group models.Group, id int) (int, error)
	RemoveGroup(ctx context.Context, courseID, id int) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// CatalogService реализует операции каталога поверх хранилища и кеша.
type CatalogService struct {
	repo  CatalogRepository
	cache Cache
	log   *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo CatalogRepository, cache Cache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func courseCacheKey(id int) string {
	return fmt.Sprintf("course:%d", id)
}

func parseCourse(req models.DummyCourse) (models.Course, error) {
	startDate, err := time.Parse(models.TimeLayout, req.StartDate)
	if err != nil {
		return models.Course{}, fmt.Errorf("invalid start date: %w", err)
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return models.Course{}, fmt.Errorf("invalid price: %w", err)
	}
	if price.IsNegative() {
		return models.Course{}, fmt.Errorf("price must not be negative")
	}
	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}
	return models.Course{
		Title:       req.Title,
		StartDate:   startDate,
		Price:       price,
		IsAvailable: isAvailable,
	}, nil
}

// ===== COURSES =====

// CreateCourse создаёт курс от имени автора и кеширует его.
func (s *CatalogService) CreateCourse(ctx context.Context, authorUID string, req models.DummyCourse) (*models.Course, error) {
	course, err := parseCourse(req)
	if err != nil {
		return nil, err
	}
	course.AuthorUID = authorUID

	id, err := s.repo.CreateCourse(ctx, course)
	if err != nil {
		return nil, err
	}
	course.ID = id
	s.log.Info("created new course", slog.Int("id", id))

	cacheKey := courseCacheKey(id)
	if err := s.cache.Set(cacheKey, course, time.Hour); err != nil {
		s.log.Warn("failed to cache course", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return &course, nil
}

// GetCourse возвращает курс по ID, используя кеш или репозиторий.
func (s *CatalogService) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	var result *models.Course
	cacheKey := courseCacheKey(id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read course from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found && result != nil {
		return result, nil
	}
	result, err = s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add course to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// ListCourses возвращает страницу каталога курсов.
func (s *CatalogService) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	return s.repo.ListCourses(ctx, limit, offset)
}

// UpdateCourse обновляет курс и кеширует новую версию.
func (s *CatalogService) UpdateCourse(ctx context.Context, req models.DummyCourse, id int) (*models.Course, error) {
	course, err := parseCourse(req)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.UpdateCourse(ctx, course, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.ErrCourseNotFound
	}
	s.log.Info("updated course", slog.Int("id", id))

	updated, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	cacheKey := courseCacheKey(id)
	if err := s.cache.Set(cacheKey, updated, time.Hour); err != nil {
		s.log.Warn("failed to cache course", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return updated, nil
}

// PatchCourse частично обновляет курс: неприсланные поля сохраняют
// текущие значения. Новая версия кешируется так же, как при UpdateCourse.
func (s *CatalogService) PatchCourse(ctx context.Context, req models.CoursePatch, id int) (*models.Course, error) {
	current, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	course := *current
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.StartDate != nil {
		startDate, err := time.Parse(models.TimeLayout, *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
		course.StartDate = startDate
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price: %w", err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("price must not be negative")
		}
		course.Price = price
	}
	if req.IsAvailable != nil {
		course.IsAvailable = *req.IsAvailable
	}

	count, err := s.repo.UpdateCourse(ctx, course, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.ErrCourseNotFound
	}
	s.log.Info("patched course", slog.Int("id", id))

	cacheKey := courseCacheKey(id)
	if err := s.cache.Set(cacheKey, &course, time.Hour); err != nil {
		s.log.Warn("failed to cache course", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return &course, nil
}

// RemoveCourse удаляет курс и инвалидирует кеш. Уроки, группы и подписки
// удаляются каскадно вместе с курсом.
func (s *CatalogService) RemoveCourse(ctx context.Context, id int) error {
	cacheKey := courseCacheKey(id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove course from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	count, err := s.repo.RemoveCourse(ctx, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrCourseNotFound
	}
	s.log.Info("removed course", slog.Int("id", id))
	return nil
}

// ===== LESSONS =====

// CreateLesson создаёт урок в курсе. Курс должен существовать.
func (s *CatalogService) CreateLesson(ctx context.Context, courseID int, req models.DummyLesson) (*models.Lesson, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	lesson := models.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Link:     req.Link,
	}
	id, err := s.repo.CreateLesson(ctx, lesson)
	if err != nil {
		return nil, err
	}
	lesson.ID = id
	s.log.Info("created new lesson", slog.Int("id", id), slog.Int("course_id", courseID))
	return &lesson, nil
}

// GetLesson возвращает урок курса.
func (s *CatalogService) GetLesson(ctx context.Context, courseID, id int) (*models.Lesson, error) {
	return s.repo.GetLesson(ctx, courseID, id)
}

// ListLessons возвращает уроки курса. Курс должен существовать.
func (s *CatalogService) ListLessons(ctx context.Context, courseID int) ([]*models.Lesson, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListLessons(ctx, courseID)
}

// UpdateLesson обновляет урок курса.
func (s *CatalogService) UpdateLesson(ctx context.Context, courseID, id int, req models.DummyLesson) (*models.Lesson, error) {
	lesson := models.Lesson{
		ID:       id,
		CourseID: courseID,
		Title:    req.Title,
		Link:     req.Link,
	}
	count, err := s.repo.UpdateLesson(ctx, lesson, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.ErrLessonNotFound
	}
	s.log.Info("updated lesson", slog.Int("id", id))
	return &lesson, nil
}

// RemoveLesson удаляет урок курса.
func (s *CatalogService) RemoveLesson(ctx context.Context, courseID, id int) error {
	count, err := s.repo.RemoveLesson(ctx, courseID, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrLessonNotFound
	}
	s.log.Info("removed lesson", slog.Int("id", id))
	return nil
}

// ===== GROUPS =====

// CreateGroup создаёт группу курса со списком студентов. Курс должен существовать.
func (s *CatalogService) CreateGroup(ctx context.Context, courseID int, req models.DummyGroup) (*models.Group, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	group := models.Group{
		CourseID:    courseID,
		Title:       req.Title,
		StudentUIDs: req.StudentUIDs,
	}
	id, err := s.repo.CreateGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	group.ID = id
	s.log.Info("created new group", slog.Int("id", id), slog.Int("course_id", courseID))
	return &group, nil
}

// GetGroup возвращает группу курса со списком студентов.
func (s *CatalogService) GetGroup(ctx context.Context, courseID, id int) (*models.Group, error) {
	return s.repo.GetGroup(ctx, courseID, id)
}

// ListGroups возвращает группы курса. Курс должен существовать.
func (s *CatalogService) ListGroups(ctx context.Context, courseID int) ([]*models.Group, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListGroups(ctx, courseID)
}

// UpdateGroup обновляет группу и заменяет состав её студентов.
func (s *CatalogService) UpdateGroup(ctx context.Context, courseID, id int, req models.DummyGroup) (*models.Group, error) {
	group := models.Group{
		ID:          id,
		CourseID:    courseID,
		Title:       req.Title,
		StudentUIDs: req.StudentUIDs,
	}
	count, err := s.repo.UpdateGroup(ctx, group, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.ErrGroupNotFound
	}
	s.log.Info("updated group", slog.Int("id", id))
	return &group, nil
}

// RemoveGroup удаляет группу курса.
func (s *CatalogService) RemoveGroup(ctx context.Context, courseID, id int) error {
	count, err := s.repo.RemoveGroup(ctx, courseID, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrGroupNotFound
	}
	s.log.Info("removed group", slog.Int("id", id))
	return nil
}
