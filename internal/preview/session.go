package preview

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/pagebuilder-site/internal/config"
)

// CookieName is the cookie carrying a preview session token.
const CookieName = "__preview_session"

// Claims represents preview session claims.
type Claims struct {
	Slug string `json:"slug"`
	jwt.RegisteredClaims
}

// Sessions issues and validates preview session tokens.
type Sessions struct {
	config *config.PreviewConfig
	now    func() time.Time
}

// NewSessions creates a session service with the given configuration.
func NewSessions(cfg *config.PreviewConfig) *Sessions {
	return &Sessions{
		config: cfg,
		now:    time.Now,
	}
}

// VerifySecret reports whether secret may open a preview session.
func (s *Sessions) VerifySecret(secret string) bool {
	return s.config.VerifySecret(secret)
}

// TTL returns how long an issued session stays valid.
func (s *Sessions) TTL() time.Duration {
	return time.Duration(s.config.ExpirationMinutes) * time.Minute
}

// Issue generates a session token for slug.
func (s *Sessions) Issue(slug string) (string, error) {
	now := s.now()

	claims := &Claims{
		Slug: slug,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign preview token: %w", err)
	}
	return tokenString, nil
}

// Validate validates a session token and returns its claims.
func (s *Sessions) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// FromRequest returns the claims of a valid session cookie on r.
func (s *Sessions) FromRequest(r *http.Request) (*Claims, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	claims, err := s.Validate(cookie.Value)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// Cookie wraps a session token in a cookie.
func (s *Sessions) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	}
}

// ClearCookie returns a cookie that removes the session.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	}
}

// The visual editor loads pages in a cross-site frame, which needs SameSite=None.
// Browsers reject that without Secure.
func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
