// Package templates holds the subject/body functions bound to rules.
// Output is intentionally plain; payload values are HTML-escaped.
package templates

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// Func renders one email from an event payload. It must be free of side effects.
type Func func(payload map[string]any) (domain.Content, error)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// Simple builds a Func from a subject and a body. {key} placeholders are
// substituted from the payload; each body line becomes a paragraph.
func Simple(subject, body string) Func {
	return func(payload map[string]any) (domain.Content, error) {
		return domain.Content{
			Subject: fill(subject, payload, false),
			Body:    layout(fill(body, payload, true)),
		}, nil
	}
}

// Require wraps f so that rendering fails when any key is missing or empty.
func Require(f Func, keys ...string) Func {
	return func(payload map[string]any) (domain.Content, error) {
		for _, k := range keys {
			if value(payload, k) == "" {
				return domain.Content{}, fmt.Errorf("template: missing required field %q", k)
			}
		}
		return f(payload)
	}
}

func fill(s string, payload map[string]any, escape bool) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		v := value(payload, m[1:len(m)-1])
		if escape {
			return html.EscapeString(v)
		}
		return v
	})
}

func value(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprint(t)
	}
}

func layout(body string) string {
	var b strings.Builder
	b.WriteString(`<!doctype html><html><body style="font-family:sans-serif">`)
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString("<p>")
			b.WriteString(line)
			b.WriteString("</p>")
		}
	}
	b.WriteString("</body></html>")
	return b.String()
}
