package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventops/backoffice-api/internal/email"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// Digest mails the aggregate of a scan cycle to configured admin
// addresses. A digest failure is logged and swallowed; mail trouble never
// fails a scan.
type Digest struct {
	mail       email.Service
	recipients []string
	logger     *logger.Logger
}

func NewDigest(mail email.Service, recipients []string, logger *logger.Logger) *Digest {
	return &Digest{mail: mail, recipients: recipients, logger: logger}
}

// Send mails one table row per scanner. No-op when no recipients are
// configured.
func (d *Digest) Send(ctx context.Context, summaries []*Summary) {
	if d == nil || len(d.recipients) == 0 || len(summaries) == 0 {
		return
	}
	subject := fmt.Sprintf("Notification scan digest %s", time.Now().Format("02/01/2006 15:04"))
	if err := d.mail.SendScanDigest(ctx, d.recipients, subject, renderDigest(summaries)); err != nil {
		d.logger.Error(err, "failed to mail scan digest")
	}
}

func renderDigest(summaries []*Summary) string {
	var b strings.Builder
	b.WriteString("<table border=\"1\" cellpadding=\"4\">")
	b.WriteString("<tr><th>Scanner</th><th>Processed</th><th>Sent</th><th>Scheduled</th><th>Skipped</th><th>Errors</th></tr>")
	for _, s := range summaries {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>",
			s.Scanner, s.Processed, s.Sent, s.Scheduled, s.Skipped, s.Errors)
	}
	b.WriteString("</table>")
	return b.String()
}
