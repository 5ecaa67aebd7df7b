// Package auth 握手令牌的签发与校验。账号体系由外部负责，这里只认令牌中的玩家ID。
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// ErrInvalidToken 令牌无效
var ErrInvalidToken = eris.New("invalid token")

// Verifier HS256 令牌校验器。密钥为空时不启用校验。
type Verifier struct {
	secret []byte
}

// NewVerifier 创建校验器
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled 是否启用令牌校验
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Subject 校验令牌并返回其中的玩家ID
func (v *Verifier) Subject(tokenString string) (string, error) {
	if tokenString == "" {
		return "", eris.Wrap(ErrInvalidToken, "empty token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", eris.Wrapf(ErrInvalidToken, "parse token: %v", err)
	}
	if claims.Subject == "" {
		return "", eris.Wrap(ErrInvalidToken, "missing subject")
	}
	return claims.Subject, nil
}

// Sign 为玩家签发令牌
func Sign(secret, playerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", eris.Wrap(err, "sign token")
	}
	return signed, nil
}
