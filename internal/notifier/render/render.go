// Package render substitutes template placeholders and builds deep links.
package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/eventops/backoffice-api/internal/model"
)

// Context is the flat substitution map for one rendered notification.
type Context map[string]string

// Renderer renders template text and deep links against a context.
type Renderer struct {
	baseURL string
}

// NewRenderer takes the admin UI base URL used for deep links.
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}
}

// Render substitutes {{var}} and {var} tokens. Unknown tokens render empty.
func (r *Renderer) Render(text string, ctx Context) string {
	if text == "" {
		return ""
	}
	out := text
	for k, v := range ctx {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return stripUnresolved(out)
}

var tokenRe = regexp.MustCompile(`\{\{?[a-zA-Z0-9_]+\}?\}`)

// stripUnresolved blanks any leftover {{token}} / {token} so recipients
// never see raw placeholders.
func stripUnresolved(s string) string {
	return tokenRe.ReplaceAllString(s, "")
}

// Link builds the notification deep link: either from the template's
// dynamic URL type or from an explicit base plus rendered params.
func (r *Renderer) Link(t *model.NotificationTemplate, ctx Context) string {
	if t.DynamicURLType != "" {
		return r.dynamicLink(t.DynamicURLType, ctx)
	}
	if t.LinkBase == "" {
		return ""
	}
	base := r.Render(t.LinkBase, ctx)
	if len(t.LinkParams) == 0 {
		return base
	}
	q := url.Values{}
	for k, v := range t.LinkParams {
		q.Set(k, r.Render(v, ctx))
	}
	return base + "?" + q.Encode()
}

func (r *Renderer) dynamicLink(kind model.DynamicURLType, ctx Context) string {
	switch kind {
	case model.URLEventDetails:
		return fmt.Sprintf("%s/events/%s", r.baseURL, ctx["event_id"])
	case model.URLSupplierPortal:
		return fmt.Sprintf("%s/portal/suppliers/%s?event=%s", r.baseURL, ctx["supplier_id"], ctx["event_id"])
	case model.URLQuoteView:
		return fmt.Sprintf("%s/quotes/%s", r.baseURL, ctx["quote_id"])
	case model.URLPaymentPage:
		return fmt.Sprintf("%s/events/%s/payments", r.baseURL, ctx["event_id"])
	default:
		return r.baseURL
	}
}
