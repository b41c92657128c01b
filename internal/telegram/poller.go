package telegram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

type Processor interface {
	Process(ctx context.Context, update Update) error
}

type PollerOptions struct {
	Timeout    time.Duration
	Workers    int
	RetryDelay time.Duration
}

// Poller long-polls getUpdates and processes updates on a bounded number of
// goroutines.
type Poller struct {
	source     UpdateSource
	processor  Processor
	timeout    time.Duration
	retryDelay time.Duration
	slots      chan struct{}
	logger     *zap.Logger
}

func NewPoller(source UpdateSource, processor Processor, options PollerOptions, logger *zap.Logger) *Poller {
	if options.Timeout <= 0 {
		options.Timeout = 50 * time.Second
	}
	if options.Workers <= 0 {
		options.Workers = 8
	}
	if options.RetryDelay <= 0 {
		options.RetryDelay = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		source:     source,
		processor:  processor,
		timeout:    options.Timeout,
		retryDelay: options.RetryDelay,
		slots:      make(chan struct{}, options.Workers),
		logger:     logger,
	}
}

// Run blocks until ctx is done and in-flight updates have finished.
func (poller *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		updates, err := poller.source.GetUpdates(ctx, offset, poller.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			poller.logger.Warn("get updates failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(poller.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}

			select {
			case poller.slots <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			wg.Add(1)
			go func(update Update) {
				defer wg.Done()
				defer func() { <-poller.slots }()
				if err := poller.processor.Process(ctx, update); err != nil {
					poller.logger.Debug("update processed with errors", zap.Int64("update_id", update.UpdateID), zap.Error(err))
				}
			}(update)
		}
	}
}
