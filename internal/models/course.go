package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout — формат дат во внешнем API (даты начала курса, дата подписки).
const TimeLayout = "2006-01-02T15:04:05"

// Course представляет продукт платформы — курс.
type Course struct {
	ID          int             `json:"id"`
	AuthorUID   string          `json:"author"`
	Title       string          `json:"title"`
	StartDate   time.Time       `json:"start_date"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// CourseSummary используется при сериализации вложенного курса в ответах API.
type CourseSummary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// DummyCourse используется для приёма данных курса из JSON-запроса,
// прежде чем конвертировать их в Course. Дата и цена приходят строками,
// чтобы их можно было валидировать и парсить вручную.
type DummyCourse struct {
	Title       string `json:"title" validate:"required,max=250"`       // Название курса
	StartDate   string `json:"start_date" validate:"required"`          // Дата начала в формате 2006-01-02T15:04:05
	Price       string `json:"price" validate:"required"`               // Цена, неотрицательное десятичное число
	IsAvailable *bool  `json:"is_available,omitempty" validate:"omitempty"` // Доступен ли курс для покупки
}

// CoursePatch используется для частичного обновления курса: присутствуют
// только те поля, которые клиент прислал в JSON-запросе.
type CoursePatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=250"`
	StartDate   *string `json:"start_date,omitempty" validate:"omitempty"`
	Price       *string `json:"price,omitempty" validate:"omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty" validate:"omitempty"`
}

// Lesson представляет урок, принадлежащий ровно одному курсу.
type Lesson struct {
	ID       int    `json:"id"`
	CourseID int    `json:"course"`
	Title    string `json:"title"`
	Link     string `json:"link"`
}

// DummyLesson используется для приёма данных урока из JSON-запроса.
type DummyLesson struct {
	Title string `json:"title" validate:"required,max=250"` // Название урока
	Link  string `json:"link" validate:"required,url"`      // Ссылка на материалы урока
}

// Group представляет учебную группу курса и набор её студентов.
type Group struct {
	ID          int      `json:"id"`
	CourseID    int      `json:"course"`
	Title       string   `json:"title"`
	StudentUIDs []string `json:"students"`
}

// DummyGroup используется для приёма данных группы из JSON-запроса.
type DummyGroup struct {
	Title       string   `json:"title" validate:"required,max=250"`           // Название группы
	StudentUIDs []string `json:"students,omitempty" validate:"omitempty,dive,uuid"` // UID студентов группы
}
