// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client. Connecting probes the broker topology
// and retries transient failures, so the worker manager can start before the
// broker finishes booting.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	Retry                  *RetryConfig
}

// RetryConfig bounds the connect/health retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxAttempts: 10,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
}

// Connect dials the broker and verifies it answers a topology request,
// backing off between attempts. Non-transient failures abort immediately.
func Connect(config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.Retry == nil {
		config.Retry = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}

	var lastErr error
	for attempt := 1; attempt <= config.Retry.MaxAttempts; attempt++ {
		if lastErr = c.probe(); lastErr == nil {
			if attempt > 1 {
				log.Info("broker reachable",
					map[string]interface{}{"attempt": attempt, "gateway": config.GatewayAddress})
			}
			return c, nil
		}

		if !isTransientBrokerError(lastErr) {
			break
		}

		delay := config.Retry.BaseDelay * time.Duration(1<<(attempt-1))
		if delay > config.Retry.MaxDelay {
			delay = config.Retry.MaxDelay
		}
		log.Warn("broker not reachable yet",
			map[string]interface{}{
				"attempt": attempt,
				"gateway": config.GatewayAddress,
				"retryIn": delay.String(),
				"error":   lastErr.Error(),
			})
		time.Sleep(delay)
	}

	zeebeClient.Close()
	return nil, mapBrokerError(lastErr, config.GatewayAddress)
}

func (c *Client) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectionTimeout)
	defer cancel()
	_, err := c.client.NewTopologyCommand().Send(ctx)
	return err
}

// GetClient returns the raw Zeebe client for job worker registration.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck answers the readiness probe with a fresh topology request.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// isTransientBrokerError reports whether the failure is worth retrying.
// The zeebe client surfaces gRPC status text, so this matches on phrases.
func isTransientBrokerError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapBrokerError converts a terminal connect failure into the shared
// error taxonomy so startup logs carry a classified code.
func mapBrokerError(err error, gateway string) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", fmt.Errorf("broker %s: %w", gateway, err))
	case strings.Contains(msg, "not found"):
		return errors.NewResourceNotFoundError("zeebe", fmt.Sprintf("broker %s: %v", gateway, err))
	default:
		return errors.NewExternalServiceError("zeebe", fmt.Errorf("broker %s: %w", gateway, err))
	}
}
