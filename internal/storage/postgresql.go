// Package storage реализует хранилище данных на основе PostgreSQL
// для платформы онлайн-курсов. Предоставляет методы работы с пользователями
// и их балансами, каталогом (курсы, уроки, группы) и подписками,
// включая атомарный воркфлоу покупки курса.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nstepano/course-platform/internal/models"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения.
const pgUniqueViolation = "23505"

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с каталогом, балансами и подписками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscriptions missing or query error: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ===== USER METHODS =====

// RegisterUser сохраняет нового пользователя и в той же транзакции создаёт
// для него запись баланса со стартовым значением. Запись баланса — явный шаг
// создания пользователя, а не побочный эффект.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO users (uid, email, username, password_hash, role, is_active)
			  VALUES ($1, $2, $3, $4, $5, TRUE)
			  RETURNING uid`
	var uid string
	err = tx.QueryRowContext(ctx, query,
		user.UID, user.Email, user.Username, user.PasswordHash, user.Role).Scan(&uid)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO balances (user_uid, balance) VALUES ($1, $2)`,
		uid, models.DefaultBalance)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT uid, email, username, password_hash, role, is_active, date_joined
			  FROM users
			  WHERE username = $1`
	var user models.User
	err := s.DB.QueryRowContext(ctx, query, username).Scan(
		&user.UID, &user.Email, &user.Username, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// GetUserByUID возвращает пользователя по UID.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUserByUID"

	query := `SELECT uid, email, username, password_hash, role, is_active, date_joined
			  FROM users
			  WHERE uid = $1`
	var user models.User
	err := s.DB.QueryRowContext(ctx, query, uid).Scan(
		&user.UID, &user.Email, &user.Username, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// ===== BALANCE METHODS =====

// GetBalance возвращает текущий баланс пользователя.
func (s *Storage) GetBalance(ctx context.Context, userUID string) (decimal.Decimal, error) {
	const op = "storage.GetBalance"

	var balance decimal.Decimal
	err := s.DB.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE user_uid = $1`, userUID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// DebitBalance списывает amount с баланса пользователя. Строка баланса
// блокируется на время транзакции, при недостатке средств возвращается
// models.ErrInsufficientFunds. GREATEST страхует от отрицательного остатка.
func (s *Storage) DebitBalance(ctx context.Context, userUID string, amount decimal.Decimal) error {
	const op = "storage.DebitBalance"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE user_uid = $1 FOR UPDATE`, userUID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if balance.LessThan(amount) {
		return fmt.Errorf("%s: %w", op, models.ErrInsufficientFunds)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE balances SET balance = GREATEST(balance - $1, 0) WHERE user_uid = $2`,
		amount, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreditBalance пополняет баланс пользователя на amount.
func (s *Storage) CreditBalance(ctx context.Context, userUID string, amount decimal.Decimal) error {
	const op = "storage.CreditBalance"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE balances SET balance = GREATEST(balance + $1, 0) WHERE user_uid = $2`,
		amount, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return nil
}

// ===== COURSE METHODS =====

// CreateCourse вставляет новый курс и возвращает его ID.
func (s *Storage) CreateCourse(ctx context.Context, course models.Course) (int, error) {
	const op = "storage.CreateCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO courses (author_uid, title, start_date, price, is_available)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		course.AuthorUID, course.Title, course.StartDate, course.Price, course.IsAvailable).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetCourse возвращает курс по ID.
func (s *Storage) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	const op = "storage.GetCourse"

	query := `SELECT id, author_uid, title, start_date, price, is_available
			  FROM courses
			  WHERE id = $1`
	var course models.Course
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&course.ID, &course.AuthorUID, &course.Title,
		&course.StartDate, &course.Price, &course.IsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrCourseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &course, nil
}

// ListCourses возвращает список курсов с пагинацией, новые первыми.
func (s *Storage) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	const op = "storage.ListCourses"

	query := `SELECT id, author_uid, title, start_date, price, is_available
			  FROM courses
			  ORDER BY id DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(&course.ID, &course.AuthorUID, &course.Title,
			&course.StartDate, &course.Price, &course.IsAvailable); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		courses = append(courses, &course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return courses, nil
}

// UpdateCourse обновляет данные курса по ID и возвращает количество
// затронутых строк.
func (s *Storage) UpdateCourse(ctx context.Context, course models.Course, id int) (int, error) {
	const op = "storage.UpdateCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE courses
			  SET title = $1, start_date = $2, price = $3, is_available = $4
			  WHERE id = $5`
	result, err := s.DB.ExecContext(ctx, query,
		course.Title, course.StartDate, course.Price, course.IsAvailable, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveCourse удаляет курс по ID. Уроки, группы и подписки курса
// удаляются каскадно на уровне схемы.
func (s *Storage) RemoveCourse(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ===== LESSON METHODS =====

// CreateLesson вставляет новый урок курса и возвращает его ID.
func (s *Storage) CreateLesson(ctx context.Context, lesson models.Lesson) (int, error) {
	const op = "storage.CreateLesson"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO lessons (course_id, title, link)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query, lesson.CourseID, lesson.Title, lesson.Link).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLesson возвращает урок курса по ID.
func (s *Storage) GetLesson(ctx context.Context, courseID, id int) (*models.Lesson, error) {
	const op = "storage.GetLesson"

	query := `SELECT id, course_id, title, link
			  FROM lessons
			  WHERE id = $1 AND course_id = $2`
	var lesson models.Lesson
	err := s.DB.QueryRowContext(ctx, query, id, courseID).Scan(
		&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLessonNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &lesson, nil
}

// ListLessons возвращает уроки курса в порядке добавления.
func (s *Storage) ListLessons(ctx context.Context, courseID int) ([]*models.Lesson, error) {
	const op = "storage.ListLessons"

	query := `SELECT id, course_id, title, link
			  FROM lessons
			  WHERE course_id = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lessons []*models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.Link); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		lessons = append(lessons, &lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lessons, nil
}

// UpdateLesson обновляет урок курса и возвращает количество затронутых строк.
func (s *Storage) UpdateLesson(ctx context.Context, lesson models.Lesson, id int) (int, error) {
	const op = "storage.UpdateLesson"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE lessons
			  SET title = $1, link = $2
			  WHERE id = $3 AND course_id = $4`
	result, err := s.DB.ExecContext(ctx, query, lesson.Title, lesson.Link, id, lesson.CourseID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveLesson удаляет урок курса и возвращает количество удалённых строк.
func (s *Storage) RemoveLesson(ctx context.Context, courseID, id int) (int, error) {
	const op = "storage.RemoveLesson"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM lessons WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ===== GROUP METHODS =====

// CreateGroup вставляет новую группу курса вместе с её студентами
// и возвращает ID группы.
func (s *Storage) CreateGroup(ctx context.Context, group models.Group) (int, error) {
	const op = "storage.CreateGroup"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var newID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO groups (course_id, title) VALUES ($1, $2) RETURNING id`,
		group.CourseID, group.Title).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, uid := range group.StudentUIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_students (group_id, user_uid) VALUES ($1, $2)`, newID, uid)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetGroup возвращает группу курса вместе со списком её студентов.
func (s *Storage) GetGroup(ctx context.Context, courseID, id int) (*models.Group, error) {
	const op = "storage.GetGroup"

	var group models.Group
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, course_id, title FROM groups WHERE id = $1 AND course_id = $2`,
		id, courseID).Scan(&group.ID, &group.CourseID, &group.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrGroupNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT user_uid FROM group_students WHERE group_id = $1 ORDER BY user_uid`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		group.StudentUIDs = append(group.StudentUIDs, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &group, nil
}

// ListGroups возвращает группы курса, новые первыми, без списков студентов.
func (s *Storage) ListGroups(ctx context.Context, courseID int) ([]*models.Group, error) {
	const op = "storage.ListGroups"

	query := `SELECT id, course_id, title
			  FROM groups
			  WHERE course_id = $1
			  ORDER BY id DESC`
	rows, err := s.DB.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.CourseID, &group.Title); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// UpdateGroup обновляет название группы и заменяет состав её студентов.
// Возвращает количество затронутых строк таблицы groups.
func (s *Storage) UpdateGroup(ctx context.Context, group models.Group, id int) (int, error) {
	const op = "storage.UpdateGroup"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE groups SET title = $1 WHERE id = $2 AND course_id = $3`,
		group.Title, id, group.CourseID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM group_students WHERE group_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, uid := range group.StudentUIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_students (group_id, user_uid) VALUES ($1, $2)`, id, uid)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveGroup удаляет группу курса и возвращает количество удалённых строк.
func (s *Storage) RemoveGroup(ctx context.Context, courseID, id int) (int, error) {
	const op = "storage.RemoveGroup"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM groups WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ===== SUBSCRIPTION METHODS =====

// SubscriptionExists сообщает, есть ли у пользователя запись подписки на курс,
// независимо от значения access_granted.
func (s *Storage) SubscriptionExists(ctx context.Context, userUID string, courseID int) (bool, error) {
	const op = "storage.SubscriptionExists"

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_uid = $1 AND course_id = $2)`,
		userUID, courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// AccessGranted сообщает, есть ли у пользователя подписка на курс
// с открытым доступом.
func (s *Storage) AccessGranted(ctx context.Context, userUID string, courseID int) (bool, error) {
	const op = "storage.AccessGranted"

	var granted bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscriptions
		  WHERE user_uid = $1 AND course_id = $2 AND access_granted = TRUE)`,
		userUID, courseID).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return granted, nil
}

// PayCourse выполняет покупку курса одной транзакцией: проверка существования
// курса, блокировка строки баланса, проверка отсутствия подписки и достатка
// средств, вставка подписки и списание цены. Блокировка баланса сериализует
// конкурентные покупки одного пользователя, уникальный индекс на
// (user_uid, course_id) — вторая линия защиты от дублей.
func (s *Storage) PayCourse(ctx context.Context, userUID string, courseID int, now time.Time) (*models.Subscription, error) {
	const op = "storage.PayCourse"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var price decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT price FROM courses WHERE id = $1`, courseID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrCourseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE user_uid = $1 FOR UPDATE`, userUID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_uid = $1 AND course_id = $2)`,
		userUID, courseID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
	}

	if balance.LessThan(price) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInsufficientFunds)
	}

	sub := models.Subscription{
		UserUID:          userUID,
		CourseID:         courseID,
		AccessGranted:    true,
		SubscriptionDate: now,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_uid, course_id, access_granted, subscription_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		sub.UserUID, sub.CourseID, sub.AccessGranted, sub.SubscriptionDate).Scan(&sub.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE balances SET balance = GREATEST(balance - $1, 0) WHERE user_uid = $2`,
		price, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}
