package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen - минимальная длина секрета подписи
const MinSecretLen = 32

var ErrInvalidToken = errors.New("недействительный токен")

// Claims - содержимое токена оператора
type Claims struct {
	OperatorID uint64 `json:"operator_id"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет HS256-токены операторов.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer создаёт эмитент. Секрет короче MinSecretLen отклоняется.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("секрет должен быть не короче %d байт", MinSecretLen)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		issuer: "leafdecay",
		now:    time.Now,
	}, nil
}

// Issue выпускает токен для оператора
func (ti *TokenIssuer) Issue(op *Operator) (string, time.Time, error) {
	now := ti.now()
	expiresAt := now.Add(ti.ttl)
	claims := &Claims{
		OperatorID: op.ID,
		Name:       op.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ti.issuer,
			Subject:   op.Name,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate проверяет подпись, срок и издателя токена
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неожиданный метод подписи")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer), jwt.WithTimeFunc(ti.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// GenerateSecret возвращает случайный секрет в base64
func GenerateSecret() string {
	b := make([]byte, MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeSecret разбирает секрет из base64
func DecodeSecret(secret string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("секрет не в base64: %w", err)
	}
	if len(decoded) < MinSecretLen {
		return nil, fmt.Errorf("секрет должен быть не короче %d байт", MinSecretLen)
	}
	return decoded, nil
}
