package models

import "github.com/shopspring/decimal"

// DefaultBalance — стартовый баланс бонусных баллов нового пользователя.
var DefaultBalance = decimal.RequireFromString("1000.00")

// Balance представляет баланс бонусных баллов пользователя.
// Запись создаётся вместе с пользователем и принадлежит ему один к одному.
// Инвариант: баланс никогда не сохраняется отрицательным, любая попытка
// записать отрицательное значение обрезается до нуля.
type Balance struct {
	UserUID string          // Владелец баланса
	Amount  decimal.Decimal // Текущий баланс, неотрицательный
}
