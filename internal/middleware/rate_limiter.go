package middleware

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// rateLimitIdle is how long an idle client's bucket is kept.
const rateLimitIdle = 3 * time.Minute

// RateLimiter limits requests per client IP to perSecond. The burst is one
// second's worth of requests, and never less than one, so fractional rates
// still admit a first request.
func RateLimiter(perSecond float64) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     max(1, int(math.Ceil(perSecond))),
		ExpiresIn: rateLimitIdle,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("Rate limit exceeded", "client", identifier)
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"code":    "rate_limited",
				"message": "too many requests, slow down",
			})
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"code":    "forbidden",
				"message": "client could not be identified",
			})
		},
	})
}
