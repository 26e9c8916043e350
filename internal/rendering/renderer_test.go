package rendering

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func TestRenderComponent(t *testing.T) {
	r := NewUniversalRenderer()
	ctx := context.Background()

	t.Run("gomponents node", func(t *testing.T) {
		out, err := r.RenderComponent(ctx, h.P(g.Text("hi")))
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", string(out))
	})

	t.Run("templ component", func(t *testing.T) {
		c := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<b>x</b>")
			return err
		})
		out, err := r.RenderComponent(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "<b>x</b>", string(out))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := r.RenderComponent(ctx, 42)
		assert.ErrorContains(t, err, "unsupported component type: int")
	})
}

func TestRenderPage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := NewUniversalRenderer().RenderPage(c, http.StatusOK, Layout("Status", h.P(g.Text("body"))))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Status</title>")
	assert.Contains(t, rec.Body.String(), "<p>body</p>")
	assert.Contains(t, rec.Body.String(), htmxSrc)
}

func TestEchoRender(t *testing.T) {
	e := echo.New()
	e.Renderer = NewUniversalRenderer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, c.Render(http.StatusAccepted, "", h.Span(g.Text("ok"))))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "<span>ok</span>", rec.Body.String())
}
