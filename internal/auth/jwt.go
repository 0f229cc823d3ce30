package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Decoder turns a stored token into a Session. With a secret it verifies
// the HMAC signature; without one it only decodes, like a browser would.
type Decoder struct {
	secret []byte
	now    func() time.Time
}

func NewDecoder(secret string) *Decoder {
	d := &Decoder{now: time.Now}
	if secret != "" {
		d.secret = []byte(secret)
	}
	return d
}

func (d *Decoder) Decode(tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	var err error
	if d.secret != nil {
		_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return d.secret, nil
		}, jwt.WithoutClaimsValidation())
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(tokenString, claims)
	}
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	// exp is checked here so both paths share the same rule.
	if claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}

	s := claims.session()
	if s.UserID == "" {
		return nil, errors.Wrap(ErrInvalidToken, "no subject")
	}
	return s, nil
}

// GenerateToken signs an HS256 token for s. The identity provider issues
// real tokens; this is used for local development and tests.
func GenerateToken(secret string, s Session, ttl time.Duration) (string, error) {
	if s.UserID == "" {
		return "", errors.New("empty userID passed to GenerateToken")
	}
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:   s.Email,
		Name:    s.DisplayName,
		Picture: s.AvatarRef,
		Role:    s.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
