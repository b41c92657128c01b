package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
	"go.uber.org/zap"
)

var ErrGenerationFailed = errors.New("generation failed")

type Generator interface {
	DailyEnergy(ctx context.Context) (string, error)
	TarotReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error)
	OwnDeckReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error)
	DeeperInterpretation(ctx context.Context, prior string) (string, error)
}

// Completer turns a system prompt and a user prompt into model text.
type Completer interface {
	Complete(ctx context.Context, system string, prompt string) (string, error)
}

type GatewayOptions struct {
	Attempts         int
	Backoff          time.Duration
	BreakerTimeout   time.Duration
	FailureThreshold float64
	MinRequests      uint32
	Logger           *zap.Logger
	Metrics          *observability.Collector
}

func DefaultGatewayOptions() GatewayOptions {
	return GatewayOptions{
		Attempts:         3,
		Backoff:          500 * time.Millisecond,
		BreakerTimeout:   60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Gateway implements Generator on top of a Completer with a circuit breaker
// and a bounded retry for transient failures.
type Gateway struct {
	completer Completer
	breaker   *gobreaker.CircuitBreaker
	attempts  int
	backoff   time.Duration
	logger    *zap.Logger
	metrics   *observability.Collector
	sleep     func(ctx context.Context, delay time.Duration) error
}

func NewGateway(completer Completer, options GatewayOptions) *Gateway {
	if options.Attempts < 1 {
		options.Attempts = 1
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	logger := options.Logger

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generator",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     options.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < options.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= options.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Gateway{
		completer: completer,
		breaker:   breaker,
		attempts:  options.Attempts,
		backoff:   options.Backoff,
		logger:    logger,
		metrics:   options.Metrics,
		sleep:     sleepContext,
	}
}

func (gateway *Gateway) DailyEnergy(ctx context.Context) (string, error) {
	return gateway.generate(ctx, "daily_energy", buildDailyEnergyPrompt(time.Now()))
}

func (gateway *Gateway) TarotReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error) {
	if len(cards) == 0 {
		return "", fmt.Errorf("%w: no cards to interpret", ErrGenerationFailed)
	}
	return gateway.generate(ctx, "tarot", buildTarotPrompt(question, cards, spread))
}

func (gateway *Gateway) OwnDeckReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error) {
	if len(cards) == 0 {
		return "", fmt.Errorf("%w: no cards to interpret", ErrGenerationFailed)
	}
	return gateway.generate(ctx, "own_deck", buildOwnDeckPrompt(question, cards, spread))
}

func (gateway *Gateway) DeeperInterpretation(ctx context.Context, prior string) (string, error) {
	if strings.TrimSpace(prior) == "" {
		return "", fmt.Errorf("%w: nothing to deepen", ErrGenerationFailed)
	}
	return gateway.generate(ctx, "deepen", buildDeepenPrompt(prior))
}

func (gateway *Gateway) generate(ctx context.Context, operation string, prompt string) (string, error) {
	started := time.Now()
	text, err := gateway.generateWithRetry(ctx, operation, prompt)
	gateway.metrics.ObserveGeneration(operation, err, time.Since(started))
	if err != nil {
		gateway.logger.Error("generation failed", zap.String("operation", operation), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", ErrGenerationFailed, operation, err)
	}
	return text, nil
}

func (gateway *Gateway) generateWithRetry(ctx context.Context, operation string, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= gateway.attempts; attempt++ {
		result, err := gateway.breaker.Execute(func() (interface{}, error) {
			return gateway.completer.Complete(ctx, systemPrompt, prompt)
		})
		if err == nil {
			text := strings.TrimSpace(result.(string))
			if text == "" {
				return "", errors.New("empty completion")
			}
			return text, nil
		}

		lastErr = err
		if !isRetryable(ctx, err) || attempt == gateway.attempts {
			break
		}
		gateway.logger.Warn("retrying generation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if err := gateway.sleep(ctx, gateway.backoff*time.Duration(attempt)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
