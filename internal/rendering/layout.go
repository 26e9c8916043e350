package rendering

import (
	"context"
	"io"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// Layout wraps body in the HTML shell shared by every server-rendered page.
func Layout(title string, body g.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return h.Doctype(
			h.HTML(h.Lang("en"),
				h.Head(
					h.Meta(h.Charset("utf-8")),
					h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
					h.TitleEl(g.Text(title)),
					h.Script(h.Src(htmxSrc)),
				),
				h.Body(
					h.Header(h.H1(g.Text(title))),
					h.Main(body),
				),
			),
		).Render(w)
	})
}
