// Package httpclient es el cliente GET/JSON compartido por los adapters de mercado.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultBaseRetryWait = 2 * time.Second
)

// StatusError es una respuesta no-2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Client hace GETs con rate limit y decodifica JSON.
// Solo reintenta si MaxRetries > 0; cada intento espera al limiter.
type Client struct {
	http          *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	baseRetryWait time.Duration
}

type Option func(*Client)

// WithTimeout fija el timeout por request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetry activa backoff exponencial acotado: espera base, 2*base, 4*base...
func WithRetry(maxRetries int, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if base > 0 {
			c.baseRetryWait = base
		}
	}
}

// WithHTTPClient reemplaza el *http.Client interno.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New crea un Client limitado a ratePerSec requests con el burst dado.
func New(ratePerSec float64, burst int, opts ...Option) *Client {
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		http:          &http.Client{Timeout: defaultTimeout},
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), burst),
		baseRetryWait: defaultBaseRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON pide url y decodifica el body en out.
// Errores de red, 429 y 5xx se envuelven con domain.ErrTransient; el resto de 4xx
// se devuelve como *StatusError.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt-1); err != nil {
				return err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := c.get(ctx, url, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrTransient) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		if attempt < c.maxRetries {
			slog.Debug("httpclient: retrying", "url", url, "attempt", attempt+1, "err", err)
		}
	}
	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", domain.ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sleep espera base * 2^attempt, o menos si ctx termina.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.baseRetryWait
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
