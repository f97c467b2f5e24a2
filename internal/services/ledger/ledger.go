// Package services содержит бизнес-логику баланса бонусных баллов пользователя.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// LedgerRepository определяет методы для работы с балансами в хранилище.
type LedgerRepository interface {
	// GetBalance возвращает текущий баланс пользователя.
	GetBalance(ctx context.Context, userUID string) (decimal.Decimal, error)
	// DebitBalance списывает сумму, возвращая ErrInsufficientFunds при нехватке средств.
	DebitBalance(ctx context.Context, userUID string, amount decimal.Decimal) error
	// CreditBalance пополняет баланс пользователя.
	CreditBalance(ctx context.Context, userUID string, amount decimal.Decimal) error
}

// LedgerService реализует операции над балансом. Баланс никогда не бывает
// отрицательным: хранилище обрезает любое отрицательное значение до нуля.
type LedgerService struct {
	repo LedgerRepository
	log  *slog.Logger
}

// NewLedgerService создает новый экземпляр LedgerService.
func NewLedgerService(repo LedgerRepository, log *slog.Logger) *LedgerService {
	return &LedgerService{
		repo: repo,
		log:  log,
	}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *LedgerService) GetBalance(ctx context.Context, userUID string) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, userUID)
}

// Debit списывает amount с баланса пользователя.
func (s *LedgerService) Debit(ctx context.Context, userUID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit amount must be positive")
	}
	if err := s.repo.DebitBalance(ctx, userUID, amount); err != nil {
		return err
	}
	s.log.Info("balance debited",
		slog.String("user_uid", userUID), slog.String("amount", amount.String()))
	return nil
}

// Credit пополняет баланс пользователя на amount.
func (s *LedgerService) Credit(ctx context.Context, userUID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("credit amount must be positive")
	}
	if err := s.repo.CreditBalance(ctx, userUID, amount); err != nil {
		return err
	}
	s.log.Info("balance credited",
		slog.String("user_uid", userUID), slog.String("amount", amount.String()))
	return nil
}
