package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventops/backoffice-api/pkg/logger"
)

type fakeMail struct {
	to      []string
	subject string
	body    string
	sends   int
}

func (f *fakeMail) SendScanDigest(_ context.Context, to []string, subject, htmlBody string) error {
	f.to = to
	f.subject = subject
	f.body = htmlBody
	f.sends++
	return nil
}

func TestDigestSend(t *testing.T) {
	mail := &fakeMail{}
	d := NewDigest(mail, []string{"ops@example.com"}, logger.NewLogger(nil))

	d.Send(context.Background(), []*Summary{{Scanner: "open_quote", Processed: 2, Sent: 1}})

	assert.Equal(t, []string{"ops@example.com"}, mail.to)
	assert.Regexp(t, `^Notification scan digest \d{2}/\d{2}/\d{4} \d{2}:\d{2}$`, mail.subject)
	assert.Contains(t, mail.body, "<td>open_quote</td>")
}

func TestDigestNoRecipientsIsNoop(t *testing.T) {
	mail := &fakeMail{}
	d := NewDigest(mail, nil, logger.NewLogger(nil))

	d.Send(context.Background(), []*Summary{{Scanner: "open_quote"}})

	assert.Zero(t, mail.sends)
}
