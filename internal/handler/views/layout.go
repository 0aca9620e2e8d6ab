// Package views renders the HTML pages. Components are plain
// templ.ComponentFunc values so no code generation step is needed.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/model"
)

// htmlWriter keeps the first write error so components can write without
// checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s HTML-escaped.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// rawf formats into the output. Arguments are escaped.
func (h *htmlWriter) rawf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = templ.EscapeString(v)
		default:
			escaped[i] = v
		}
	}
	h.raw(fmt.Sprintf(format, escaped...))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// href prefixes p with the base path and sanitises the result.
func href(ctx context.Context, p string) string {
	return string(templ.URL(model.BasePathFromContext(ctx) + p))
}

func csrfField(ctx context.Context, h *htmlWriter) {
	h.rawf(`<input type="hidden" name="csrf_token" value="%s">`, model.CSRFTokenFromContext(ctx))
}

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#222}
header{background:#2c5d8f;color:#fff;padding:.6rem 1rem;display:flex;gap:1rem;align-items:center}
header a{color:#fff}header form{margin-left:auto}
main{max-width:64rem;margin:1rem auto;padding:0 1rem}
.card{background:#fff;border-radius:6px;padding:1rem;margin-bottom:1rem;box-shadow:0 1px 2px #0002}
table{border-collapse:collapse;width:100%}td,th{padding:.3rem .5rem;border-bottom:1px solid #ddd;text-align:left}
.msg{padding:.5rem;border-radius:4px;background:#e6f4ea}.msg.error{background:#fdecea}
.state-selected{color:#a66b00}.state-completed{color:#1a7f37}.state-locked{color:#888}
.action{background:#fde68a}progress{width:10rem}`

// script posts data-api buttons as JSON with the CSRF header and reloads
// the page so it shows the stored state.
const script = `document.addEventListener("click", async (e) => {
  const b = e.target.closest("[data-api]");
  if (!b) return;
  const token = (document.cookie.match(/(?:^|; )csrf_token=([^;]*)/) || [])[1] || "";
  let body = b.dataset.body || "{}";
  if (b.dataset.ask) {
    const q = prompt(b.dataset.ask);
    if (q === null) return;
    body = JSON.stringify(Object.assign(JSON.parse(body), {question: q}));
  }
  const res = await fetch(document.body.dataset.base + b.dataset.api, {
    method: "POST",
    headers: {"Content-Type": "application/json", "X-CSRF-Token": decodeURIComponent(token)},
    body: body,
  });
  const data = await res.json().catch(() => ({}));
  if (!res.ok) { alert(data.error || res.statusText); return; }
  if (Array.isArray(data)) {
    alert(data.map((s) => s.firstName + " " + s.lastName).join("\n") || b.dataset.empty || "-");
    return;
  }
  if (data.hint) { alert(data.hint + (data.next_step ? "\n\n" + data.next_step : "")); return; }
  location.reload();
});`

// page wraps body in the common layout.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		appTitle := appI18n.T(ctx, "AppTitle")
		h.raw(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.rawf(`<title>%s · %s</title>`, title, appTitle)
		h.raw(`<style>` + styles + `</style></head>`)
		h.rawf(`<body data-base="%s"><header>`, model.BasePathFromContext(ctx))
		h.rawf(`<a href="%s"><strong>%s</strong></a>`, href(ctx, "/"), appTitle)
		if user := model.UserFromContext(ctx); user != nil {
			if user.Role == model.UserRoleAdmin {
				h.rawf(`<a href="%s">%s</a>`, href(ctx, "/admin/users"), appI18n.T(ctx, "NavUsers"))
				h.rawf(`<a href="%s">%s</a>`, href(ctx, "/admin/teachers"), appI18n.T(ctx, "NavTeachers"))
				h.rawf(`<a href="%s">%s</a>`, href(ctx, "/admin/curriculum"), appI18n.T(ctx, "NavCurriculum"))
				h.rawf(`<a href="%s">%s</a>`, href(ctx, "/admin/catalog"), appI18n.T(ctx, "NavCatalog"))
				h.rawf(`<a href="%s">%s</a>`, href(ctx, "/admin/school"), appI18n.T(ctx, "NavSchool"))
			}
			h.rawf(`<form method="post" action="%s">`, href(ctx, "/logout"))
			csrfField(ctx, h)
			h.rawf(`%s <button type="submit">%s</button></form>`, user.DisplayName, appI18n.T(ctx, "Logout"))
		}
		h.raw(`</header><main>`)
		h.render(ctx, body)
		h.raw(`</main><script>` + script + `</script></body></html>`)
		return h.err
	})
}

func message(h *htmlWriter, msg string, isError bool) {
	if msg == "" {
		return
	}
	class := "msg"
	if isError {
		class = "msg error"
	}
	h.rawf(`<p class="%s">%s</p>`, class, msg)
}
