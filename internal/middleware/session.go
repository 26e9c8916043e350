package middleware

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/domain"
)

const (
	// UserContextKey is where SessionUser stores the resolved *domain.User.
	UserContextKey = "user"

	SessionName      = "organizapp"
	sessionUserIDKey = "user_id"
)

// SessionUser resolves the user id stored in the cookie session and puts
// the user in the echo context. Anonymous requests pass through untouched;
// a stale id is cleared from the session.
func SessionUser(users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				return next(c)
			}
			userID, _ := sess.Values[sessionUserIDKey].(string)
			if userID == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := users.FindByID(ctx, userID)
			switch {
			case err == nil:
				c.Set(UserContextKey, user)
				logger := FromContext(ctx).With("user_id", user.ID)
				c.SetRequest(c.Request().WithContext(WithLogger(ctx, logger)))
			case errors.Is(err, domain.ErrNotFound):
				delete(sess.Values, sessionUserIDKey)
				_ = sess.Save(c.Request(), c.Response())
			default:
				FromContext(ctx).Warn("Failed to resolve session user", "user_id", userID, "error", err)
			}
			return next(c)
		}
	}
}

// UserFromContext returns the session user, or nil for anonymous requests.
func UserFromContext(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}

// Login stores userID in the session cookie.
func Login(c echo.Context, userID string) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	sess.Values[sessionUserIDKey] = userID
	return sess.Save(c.Request(), c.Response())
}

// Logout expires the session cookie.
func Logout(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
	delete(sess.Values, sessionUserIDKey)
	return sess.Save(c.Request(), c.Response())
}
