package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	OperatorID string          `json:"operator_id"`
	Scopes     map[string]bool `json:"scopes"` // "dashboard.read": true, "review.write": true
	jwt.RegisteredClaims
}

// Скоупы консоли
const (
	ScopeDashboardRead = "dashboard.read"
	ScopeUploadWrite   = "upload.write"
	ScopeReviewWrite   = "review.write"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

// Operator — учётная запись аналитика, описанная в конфиге консоли.
type Operator struct {
	ID           string   `mapstructure:"id" json:"id"`
	Username     string   `mapstructure:"username" json:"username"`
	PasswordHash string   `mapstructure:"password_hash" json:"-"` // bcrypt, никогда не отдаём наружу
	Scopes       []string `mapstructure:"scopes" json:"scopes"`
}

// ScopeSet переводит список скоупов в множество для claims.
func (o Operator) ScopeSet() map[string]bool {
	set := make(map[string]bool, len(o.Scopes))
	for _, s := range o.Scopes {
		set[s] = true
	}
	return set
}
