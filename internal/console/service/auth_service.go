package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// OperatorStore — источник учетных записей операторов (конфиг или Postgres).
type OperatorStore interface {
	GetOperatorByUsername(ctx context.Context, username string) (*domain.Operator, error)
}

// ConfigOperators — операторы, перечисленные в конфиге консоли.
type ConfigOperators []domain.Operator

func (c ConfigOperators) GetOperatorByUsername(_ context.Context, username string) (*domain.Operator, error) {
	for i := range c {
		if c[i].Username == username {
			op := c[i]
			return &op, nil
		}
	}
	return nil, nil
}

// AuthService выпускает RS256 токены и сам же их проверяет (embedding BaseValidator).
type AuthService struct {
	*auth.BaseValidator
	operators  OperatorStore
	privateKey *rsa.PrivateKey
	ttl        time.Duration
}

func NewAuthService(operators OperatorStore, privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		BaseValidator: auth.NewBaseValidator(publicKey),
		operators:     operators,
		privateKey:    privateKey,
		ttl:           ttl,
	}
}

func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	// 1. Аутентификация
	op, err := s.operators.GetOperatorByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup operator: %w", err)
	}
	if op == nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Проверка пароля (используем bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. Формирование Claims
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := &domain.CustomClaims{
		OperatorID: op.ID,
		Scopes:     op.ScopeSet(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   op.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	// 4. Подпись токена ЗАКРЫТЫМ КЛЮЧОМ (RS256)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}
