// Package templates holds the HTML fragments returned to HTMX clients.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error box with the user message, the
// suggested action and the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="alert alert-error" role="alert" data-code="`+templ.EscapeString(code)+`">`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<p class="alert-message">`+templ.EscapeString(message)+`</p>`); err != nil {
			return err
		}
		if action != "" {
			if _, err := io.WriteString(w, `<p class="alert-action">`+templ.EscapeString(action)+`</p>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<p class="alert-code">Code: `+templ.EscapeString(code)+`</p></div>`)
		return err
	})
}
