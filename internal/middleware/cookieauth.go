package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the name of the HTTP-only cookie carrying the
// session JWT.
const SessionCookie = "token"

// Session roles stored in the JWT's "role" claim.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
)

// ClearSessionCookie expires the session cookie on the response. Used
// on logout and whenever an invalid token is seen, so a broken cookie
// does not follow the client around.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieAuth returns middleware that validates the session JWT from the
// "token" cookie and injects the account ID and role into the request
// context under "user_id" and "role". An invalid or expired token gets
// its cookie cleared and a 401; a valid token with a role outside the
// allowed set gets a 403.
func CookieAuth(secret string, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			tok, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				ClearSessionCookie(c)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				ClearSessionCookie(c)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
			}

			sub, ok := claims["sub"].(float64)
			if !ok || sub < 1 {
				ClearSessionCookie(c)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
			}
			role, _ := claims["role"].(string)
			if len(allowed) > 0 && !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}

			c.Set("user_id", uint64(sub))
			c.Set("role", role)
			return next(c)
		}
	}
}
