package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// alertQueueSize bounds the alerts waiting for delivery.
const alertQueueSize = 64

// AlertWebhook posts AlertEvents as JSON to an external endpoint, such as a
// chat or push notification hook. Delivery happens on a background
// goroutine; when the queue is full new alerts are dropped.
type AlertWebhook struct {
	url        string
	authHeader string // "Header: Value", e.g. "Authorization: Bearer xxx"
	client     *http.Client
	maxRetries uint64
	events     chan AlertEvent
	wg         sync.WaitGroup
}

// NewAlertWebhook starts a dispatcher for url. authHeader may be empty.
func NewAlertWebhook(url, authHeader string) *AlertWebhook {
	w := &AlertWebhook{
		url:        url,
		authHeader: authHeader,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		events:     make(chan AlertEvent, alertQueueSize),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Notify enqueues e without blocking. It has the AlertFunc signature.
func (w *AlertWebhook) Notify(e AlertEvent) {
	select {
	case w.events <- e:
	default:
		slog.Warn("alert webhook: queue full, dropping alert", "type", e.Type)
	}
}

// Close stops the dispatcher after delivering queued alerts.
func (w *AlertWebhook) Close() {
	close(w.events)
	w.wg.Wait()
}

func (w *AlertWebhook) loop() {
	defer w.wg.Done()
	for e := range w.events {
		if err := w.send(e); err != nil {
			slog.Warn("alert webhook: delivery failed", "type", e.Type, "error", err)
		}
	}
}

// send POSTs e, retrying transport errors and 5xx responses.
func (w *AlertWebhook) send(e AlertEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "romantic-alerts/1.0")
		if name, value, ok := strings.Cut(w.authHeader, ":"); ok {
			req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("webhook returned %d", resp.StatusCode))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	return backoff.Retry(op, backoff.WithMaxRetries(b, w.maxRetries))
}
