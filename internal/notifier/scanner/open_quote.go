package scanner

import (
	"context"
	"strconv"
	"time"

	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
)

// OpenQuoteScanner follows up on quotes that were sent but never answered.
// The template's timing setting controls how old a quote must be before a
// follow-up goes out.
type OpenQuoteScanner struct {
	deps *Deps
	now  func() time.Time
}

func NewOpenQuoteScanner(deps *Deps) *OpenQuoteScanner {
	return &OpenQuoteScanner{deps: deps, now: time.Now}
}

func (s *OpenQuoteScanner) Name() string { return "open_quote" }

func (s *OpenQuoteScanner) Run(ctx context.Context) (*Summary, error) {
	return observe(s.deps, s.Name(), func() (*Summary, error) {
		sum := &Summary{Scanner: s.Name()}

		tmpl, err := activeTemplate(ctx, s.deps, TemplateOpenQuote)
		if err != nil {
			sum.Errors++
			return sum, err
		}

		age := tmpl.TimingOffset()
		if age < 0 {
			age = -age
		}
		if age == 0 {
			age = defaultQuoteFollowUpAge
		}

		quotes, err := s.deps.Quotes.ListOpenSentBefore(ctx, s.now().Add(-age))
		if err != nil {
			sum.Errors++
			return sum, err
		}

		for _, quote := range quotes {
			sum.Processed++
			event, err := s.deps.Events.Get(ctx, quote.EventID)
			if err != nil {
				sum.Errors++
				s.deps.Logger.Error(err, "failed to load quote's event", "quote_id", quote.ID.String())
				continue
			}
			res, err := s.deps.Orch.Run(ctx, &orchestrator.Request{
				Template: tmpl,
				Event:    event,
				Snapshot: event.Snapshot(),
				Extra: map[string]string{
					"quote_id":    quote.ID.String(),
					"quote_total": strconv.FormatFloat(quote.Total, 'f', -1, 64),
				},
			})
			if err != nil {
				sum.Errors++
				s.deps.Logger.Error(err, "open-quote notify failed", "quote_id", quote.ID.String())
				continue
			}
			sum.absorb(res)
		}
		return sum, nil
	})
}
