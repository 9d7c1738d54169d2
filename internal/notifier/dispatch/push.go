package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/eventops/backoffice-api/pkg/circuitbreaker"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// PushConfig holds web-push relay credentials, loaded from PUSH_* env vars.
type PushConfig struct {
	BaseURL string        `envconfig:"BASE_URL"`
	APIKey  string        `envconfig:"API_KEY"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

func LoadPushConfig() (PushConfig, error) {
	var cfg PushConfig
	if err := envconfig.Process("push", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load push config: %w", err)
	}
	return cfg, nil
}

// PushRelay sends notifications to registered browser subscriptions via an
// HTTP relay service.
type PushRelay struct {
	cfg     PushConfig
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

func NewPushRelay(cfg PushConfig, logger *logger.Logger) *PushRelay {
	return &PushRelay{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "push",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		logger: logger,
	}
}

type pushMessage struct {
	SubscriptionID string `json:"subscription_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Link           string `json:"link,omitempty"`
}

func (r *PushRelay) Send(ctx context.Context, subscriptionID, title, body, link string) error {
	payload, err := json.Marshal(pushMessage{
		SubscriptionID: subscriptionID,
		Title:          title,
		Body:           body,
		Link:           link,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	return r.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/v1/send", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("push relay unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("push relay returned %d: %s", resp.StatusCode, string(detail))
		}
		return nil
	})
}
