package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedEcho(perSecond float64) *echo.Echo {
	e := echo.New()
	e.GET("/api/groups", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimiter(perSecond))
	return e
}

func hit(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter(t *testing.T) {
	e := limitedEcho(5)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(e, "192.0.2.1").Code, "request %d within the burst", i+1)
	}

	rec := hit(e, "192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body["code"])

	assert.Equal(t, http.StatusOK, hit(e, "192.0.2.2").Code, "other clients have their own bucket")
}

func TestRateLimiter_FractionalRate(t *testing.T) {
	e := limitedEcho(0.5)

	assert.Equal(t, http.StatusOK, hit(e, "198.51.100.7").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(e, "198.51.100.7").Code)
}
