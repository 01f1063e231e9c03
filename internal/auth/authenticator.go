package auth

import (
	"errors"
	"time"

	"github.com/annel0/leafdecay/internal/logging"
)

// Authenticator проверяет пароль оператора и выдаёт токен
type Authenticator struct {
	repo   OperatorRepository
	tokens *TokenIssuer
	logger *logging.Logger
}

func NewAuthenticator(repo OperatorRepository, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{
		repo:   repo,
		tokens: tokens,
		logger: logging.GetComponentLogger("auth"),
	}
}

// Tokens возвращает эмитент для проверки токенов в middleware
func (a *Authenticator) Tokens() *TokenIssuer { return a.tokens }

// Login возвращает токен и момент его истечения.
// Неизвестное имя и неверный пароль неразличимы для вызывающего.
func (a *Authenticator) Login(name, password string) (string, time.Time, error) {
	op, err := a.repo.GetByName(name)
	if errors.Is(err, ErrOperatorNotFound) {
		a.logger.Warn("Вход неизвестного оператора %q", name)
		return "", time.Time{}, ErrBadCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if !CheckPassword(op.PasswordHash, password) {
		a.logger.Warn("Неверный пароль оператора %s", op.Name)
		return "", time.Time{}, ErrBadCredentials
	}

	token, expiresAt, err := a.tokens.Issue(op)
	if err != nil {
		return "", time.Time{}, err
	}
	_ = a.repo.TouchLogin(op.ID)
	a.logger.Info("🔑 Оператор %s вошёл", op.Name)
	return token, expiresAt, nil
}
