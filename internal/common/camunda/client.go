// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"drone-configurator/internal/common/config"
	"drone-configurator/internal/common/logger"
)

// RetryConfig defines retry behavior for the broker connection.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Connect creates a Zeebe client and waits until the broker answers a
// topology request, retrying with exponential backoff.
func Connect(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (zbc.Client, error) {
	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	delay := retry.BaseDelay
	for attempt := 1; ; attempt++ {
		err = ping(ctx, client)
		if err == nil {
			log.Info("zeebe broker reachable", map[string]interface{}{
				"broker":  cfg.BrokerAddress,
				"attempt": attempt,
			})
			return client, nil
		}
		if attempt >= retry.MaxRetries {
			break
		}

		log.Warn("zeebe broker not reachable, retrying", map[string]interface{}{
			"broker":      cfg.BrokerAddress,
			"attempt":     attempt,
			"maxRetries":  retry.MaxRetries,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		}

		delay *= 2
		if retry.MaxDelay > 0 && delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to Zeebe broker at %s after %d attempts: %w", cfg.BrokerAddress, retry.MaxRetries, err)
}

func ping(ctx context.Context, client zbc.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := client.NewTopologyCommand().Send(ctx)
	return err
}
