package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid 表示令牌无法通过校验（篡改、格式错误或已过期）。
var ErrInvalid = errors.New("invalid token")

// Claims 是签发的 JWT 负载：Subject 为属主 ID，外加邮箱。
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Service 负责签发与校验 Bearer 令牌。
//
// 密钥与有效期在构造时显式注入，不读取任何全局状态，
// 便于测试中使用不同密钥的实例。
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService 创建令牌服务。ttl 不大于 0 时使用 24h 默认值。
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}
}

// TTL 返回签发令牌的有效期。
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue 为属主签发 HS256 令牌，负载携带属主 ID 与邮箱。
func (s *Service) Issue(ownerID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify 解析并校验令牌，返回其负载。
//
// 签名不符、格式错误、已过期或缺少 Subject 均返回 ErrInvalid。
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
