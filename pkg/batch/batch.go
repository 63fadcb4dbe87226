// Package batch invokes a pipeline over many inputs in controlled-size
// batches, with rate-limit-aware retry and pacing. External LLM APIs impose
// per-minute rate limits; full-throughput batching triggers cascading 429s,
// so batches run sequentially, paced, and a rate-limited batch is retried
// with a growing delay before being dropped.
package batch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRateLimited signals that the provider rejected a call for throughput
// reasons. Provider clients may return it directly; anything else is
// classified by IsRateLimit.
var ErrRateLimited = errors.New("rate limited")

// Pipeline is the batched unit of work, satisfied by *pipeline.Pipeline.
type Pipeline interface {
	Batch(ctx context.Context, inputs []any) ([]any, error)
}

// InvokerConfig configures an Invoker.
type InvokerConfig struct {
	// MaxRetries is the per-batch retry ceiling for rate-limit failures.
	MaxRetries int
	// UserTier reflects the caller's provider tier; tiers below 4 get batches
	// of 30, tier 4 and up get 80.
	UserTier int
	// BatchPause is the pause between consecutive successful batches.
	BatchPause time.Duration
	// RetryDelay is the backoff unit: attempt n waits n*RetryDelay.
	RetryDelay time.Duration
}

// Invoker runs batches sequentially, deliberately not fanned out, so a single
// caller's job stays inside provider rate limits.
type Invoker struct {
	config  InvokerConfig
	limiter *rate.Limiter
	logger  *zap.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates an Invoker, applying defaults for unset config values.
func NewInvoker(config InvokerConfig, logger *zap.Logger) *Invoker {
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}
	if config.UserTier == 0 {
		config.UserTier = 1
	}
	if config.BatchPause == 0 {
		config.BatchPause = 2 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Invoker{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(config.BatchPause), 1),
		logger:  logger,
		sleep:   sleepContext,
	}
}

// BatchSize returns the batch size for a tier and input count.
func BatchSize(userTier, inputs int) int {
	size := 30
	if userTier >= 4 {
		size = 80
	}
	if inputs < size {
		size = inputs
	}
	return size
}

// Invoke partitions inputs into batches and runs each through the pipeline.
// Rate-limit failures are retried with linear backoff; a batch that exhausts
// its retries is logged and dropped, and its absence from the results is the
// caller-visible signal of partial failure. Any other error aborts the run.
func (inv *Invoker) Invoke(ctx context.Context, p Pipeline, inputs []any) ([][]any, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	batchSize := BatchSize(inv.config.UserTier, len(inputs))
	inv.logger.Debug("batch size computed",
		zap.Int("batch_size", batchSize),
		zap.Int("inputs", len(inputs)))

	var results [][]any
	for start := 0; start < len(inputs); start += batchSize {
		end := start + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		current := inputs[start:end]

		if err := inv.limiter.Wait(ctx); err != nil {
			return results, err
		}

		retries := 0
		for {
			out, err := p.Batch(ctx, current)
			if err == nil {
				results = append(results, out)
				break
			}
			if !IsRateLimit(err) {
				return results, err
			}

			retries++
			if retries > inv.config.MaxRetries {
				inv.logger.Error("max retries reached, skipping batch",
					zap.Int("batch_start", start),
					zap.Error(err))
				break
			}

			delay := time.Duration(retries) * inv.config.RetryDelay
			inv.logger.Warn("rate limited, retrying",
				zap.Int("batch_start", start),
				zap.Duration("delay", delay),
				zap.Error(err))
			if err := inv.sleep(ctx, delay); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// IsRateLimit reports whether err is a provider throughput rejection.
func IsRateLimit(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
