package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventops/backoffice-api/internal/model"
)

func TestRender(t *testing.T) {
	r := NewRenderer("https://admin.example.com")
	ctx := Context{
		"event_name":    "Levi Wedding",
		"supplier_name": "DJ Moshe",
		"balance":       "1500",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double braces", "Reminder for {{event_name}}", "Reminder for Levi Wedding"},
		{"single braces", "Hi {supplier_name}", "Hi DJ Moshe"},
		{"mixed", "{{supplier_name}}: {balance} ILS open on {event_name}", "DJ Moshe: 1500 ILS open on Levi Wedding"},
		{"unknown token blanked", "Hello {{nope}}!", "Hello !"},
		{"empty", "", ""},
		{"no tokens", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.in, ctx))
		})
	}
}

func TestLinkDynamic(t *testing.T) {
	r := NewRenderer("https://admin.example.com/")
	ctx := Context{"event_id": "e1", "supplier_id": "s1", "quote_id": "q1"}

	tmpl := &model.NotificationTemplate{DynamicURLType: model.URLEventDetails}
	assert.Equal(t, "https://admin.example.com/events/e1", r.Link(tmpl, ctx))

	tmpl.DynamicURLType = model.URLSupplierPortal
	assert.Equal(t, "https://admin.example.com/portal/suppliers/s1?event=e1", r.Link(tmpl, ctx))

	tmpl.DynamicURLType = model.URLQuoteView
	assert.Equal(t, "https://admin.example.com/quotes/q1", r.Link(tmpl, ctx))

	tmpl.DynamicURLType = model.URLPaymentPage
	assert.Equal(t, "https://admin.example.com/events/e1/payments", r.Link(tmpl, ctx))
}

func TestLinkExplicit(t *testing.T) {
	r := NewRenderer("https://admin.example.com")
	tmpl := &model.NotificationTemplate{
		LinkBase:   "https://admin.example.com/events/{{event_id}}",
		LinkParams: map[string]string{"tab": "payments"},
	}
	got := r.Link(tmpl, Context{"event_id": "abc"})
	assert.Equal(t, "https://admin.example.com/events/abc?tab=payments", got)
}

func TestLinkEmpty(t *testing.T) {
	r := NewRenderer("https://admin.example.com")
	assert.Equal(t, "", r.Link(&model.NotificationTemplate{}, Context{}))
}
