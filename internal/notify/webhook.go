package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Webhook POSTs alert payloads to the notification service. Calls are
// rate-limited so a large match batch can't hammer the service.
type Webhook struct {
	URL     string
	Client  *http.Client
	limiter *rate.Limiter
}

func NewWebhook(url string, reqPerSec float64, burst int) *Webhook {
	if reqPerSec <= 0 {
		reqPerSec = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &Webhook{
		URL:     url,
		Client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), burst),
	}
}

type alertPayload struct {
	UserID     string `json:"userId"`
	JobID      string `json:"jobId"`
	MatchScore int    `json:"matchScore"`
}

func (w *Webhook) Notify(ctx context.Context, userID, jobID string, matchScore int) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	body, _ := json.Marshal(alertPayload{UserID: userID, JobID: jobID, MatchScore: matchScore})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
