package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"lendledger/internal/domain/user"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	principalKey   = "principal"
	authEnabledKey = "auth_enabled"
)

// Principal is the caller resolved from the bearer token.
type Principal struct {
	UserID string
	Role   user.Role
}

func (p Principal) Staff() bool { return p.Role.Staff() }

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret []byte, issuer, userID string, role user.Role, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(tokenString string, secret []byte, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || !user.Role(claims.Role).Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ExtractBearer(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// JWTAuth requires a valid bearer token on every request except the skipped
// routes, given as a path ("/health") or method and path ("POST /users").
// A token sent to a skipped route is still honoured.
func JWTAuth(secret []byte, issuer string, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(authEnabledKey, true)
			token := ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if skipped(c, skip) {
				if claims, err := ParseToken(token, secret, issuer); token != "" && err == nil {
					SetPrincipal(c, Principal{UserID: claims.Subject, Role: user.Role(claims.Role)})
				}
				return next(c)
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing token"})
			}
			claims, err := ParseToken(token, secret, issuer)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			SetPrincipal(c, Principal{UserID: claims.Subject, Role: user.Role(claims.Role)})
			return next(c)
		}
	}
}

func skipped(c echo.Context, skip []string) bool {
	path := c.Path()
	route := c.Request().Method + " " + path
	for _, p := range skip {
		if p == path || p == route {
			return true
		}
	}
	return false
}

func SetPrincipal(c echo.Context, p Principal) { c.Set(principalKey, p) }

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// AuthEnabled reports whether the request went through JWTAuth.
func AuthEnabled(c echo.Context) bool {
	on, _ := c.Get(authEnabledKey).(bool)
	return on
}
