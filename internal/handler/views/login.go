package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
)

// LoginPage renders the login form, with errMsg above it when set.
func LoginPage(errMsg string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="card">`)
		h.rawf(`<h1>%s</h1>`, appI18n.T(ctx, "Login"))
		message(h, errMsg, true)
		h.rawf(`<form method="post" action="%s">`, href(ctx, "/login"))
		csrfField(ctx, h)
		h.rawf(`<p><label>%s<br><input name="username" autocomplete="username" required></label></p>`,
			appI18n.T(ctx, "Username"))
		h.rawf(`<p><label>%s<br><input name="password" type="password" autocomplete="current-password" required></label></p>`,
			appI18n.T(ctx, "Password"))
		h.rawf(`<button type="submit">%s</button></form></div>`, appI18n.T(ctx, "Login"))
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "Login"), body).Render(ctx, w)
	})
}
