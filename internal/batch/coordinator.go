// Package batch применяет изменения к набору элементов в одном из двух режимов:
// Atomic (все или ничего) и BestEffort (каждый элемент независимо).
package batch

import (
	"context"
	"fmt"
	"time"

	"story-organizer/shared/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Policy режим пакетной операции.
type Policy int

const (
	// Atomic: все элементы проверяются по порядку, первая ошибка прерывает пакет,
	// запись одним вызовом Commit только после проверки всех элементов.
	Atomic Policy = iota
	// BestEffort: каждый элемент проверяется и применяется сразу, ошибки копятся в BatchResult.
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case Atomic:
		return "atomic"
	case BestEffort:
		return "best_effort"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Handler описывает обработку элементов пакета.
type Handler[I, K, T any] struct {
	// Key ключ элемента для отчета.
	Key func(item I) K
	// Prepare проверяет элемент и строит изменение в памяти, ничего не записывая.
	Prepare func(ctx context.Context, item I) (T, error)
	// Commit записывает подготовленные изменения. В Atomic вызывается один раз для всех,
	// в BestEffort для каждого элемента отдельно.
	Commit func(ctx context.Context, prepared []T) error
}

// Outcome итог пакета. Applied в порядке входных элементов.
type Outcome[K, T any] struct {
	Result  *models.BatchResult[K]
	Applied []T
}

// Config параметры координатора.
type Config struct {
	// Concurrency число параллельно обрабатываемых элементов в BestEffort (<= 1 - последовательно).
	Concurrency int
	// MaxItems предельный размер пакета (0 - без ограничения).
	MaxItems int
}

// Coordinator выполняет пакетные операции.
type Coordinator struct {
	cfg     Config
	metrics *Metrics
	logger  *zap.Logger
}

func NewCoordinator(cfg Config, metrics *Metrics, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.Named("BatchCoordinator"),
	}
}

// Execute выполняет пакет items с обработчиком h в режиме policy.
//
// Atomic возвращает первую ошибку элемента (или Commit) и ничего не записывает.
// BestEffort возвращает ошибку только если сам набор элементов некорректен.
func Execute[I, K, T any](ctx context.Context, c *Coordinator, operation string, items []I, h Handler[I, K, T], policy Policy) (*Outcome[K, T], error) {
	if items == nil {
		return nil, fmt.Errorf("%w: batch items are required", models.ErrInvalidInput)
	}
	if c.cfg.MaxItems > 0 && len(items) > c.cfg.MaxItems {
		return nil, fmt.Errorf("%w: batch of %d items exceeds limit %d", models.ErrInvalidInput, len(items), c.cfg.MaxItems)
	}

	start := time.Now()
	log := c.logger.With(zap.String("operation", operation), zap.Stringer("policy", policy), zap.Int("items", len(items)))

	switch policy {
	case Atomic:
		outcome, err := executeAtomic(ctx, items, h)
		if err != nil {
			log.Debug("Atomic batch aborted", zap.Error(err))
			c.metrics.observe(operation, policy, 0, len(items), time.Since(start).Seconds(), true)
			return nil, err
		}
		c.metrics.observe(operation, policy, len(items), 0, time.Since(start).Seconds(), false)
		log.Debug("Atomic batch committed")
		return outcome, nil
	case BestEffort:
		outcome := executeBestEffort(ctx, c.cfg.Concurrency, items, h)
		succeeded, failed := len(outcome.Result.SuccessfulKeys), len(outcome.Result.FailedKeysWithReason)
		c.metrics.observe(operation, policy, succeeded, failed, time.Since(start).Seconds(), false)
		if failed > 0 {
			log.Info("Best-effort batch finished with failures", zap.Int("succeeded", succeeded), zap.Int("failed", failed))
		} else {
			log.Debug("Best-effort batch finished", zap.Int("succeeded", succeeded))
		}
		return outcome, nil
	default:
		return nil, fmt.Errorf("%w: unknown batch policy %s", models.ErrInvalidInput, policy)
	}
}

func executeAtomic[I, K, T any](ctx context.Context, items []I, h Handler[I, K, T]) (*Outcome[K, T], error) {
	result := models.NewBatchResult[K]()
	prepared := make([]T, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, err := h.Prepare(ctx, item)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, value)
		result.SuccessfulKeys = append(result.SuccessfulKeys, h.Key(item))
	}
	if len(prepared) > 0 {
		if err := h.Commit(ctx, prepared); err != nil {
			return nil, err
		}
	}
	return &Outcome[K, T]{Result: result, Applied: prepared}, nil
}

type itemOutcome[T any] struct {
	value T
	err   error
}

func executeBestEffort[I, K, T any](ctx context.Context, concurrency int, items []I, h Handler[I, K, T]) *Outcome[K, T] {
	outcomes := make([]itemOutcome[T], len(items))

	if concurrency <= 1 {
		for i, item := range items {
			outcomes[i] = applyOne(ctx, item, h)
		}
	} else {
		// Элементы независимы; каждая горутина пишет только свою ячейку outcomes.
		var g errgroup.Group
		g.SetLimit(concurrency)
		for i, item := range items {
			g.Go(func() error {
				outcomes[i] = applyOne(ctx, item, h)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := models.NewBatchResult[K]()
	applied := make([]T, 0, len(items))
	for i, item := range items {
		key := h.Key(item)
		if err := outcomes[i].err; err != nil {
			result.FailedKeysWithReason = append(result.FailedKeysWithReason, models.BatchFailure[K]{Key: key, Reason: err.Error()})
			continue
		}
		result.SuccessfulKeys = append(result.SuccessfulKeys, key)
		applied = append(applied, outcomes[i].value)
	}
	return &Outcome[K, T]{Result: result, Applied: applied}
}

// applyOne проверяет и применяет один элемент; паника превращается в ошибку элемента.
func applyOne[I, K, T any](ctx context.Context, item I, h Handler[I, K, T]) (out itemOutcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = itemOutcome[T]{err: fmt.Errorf("%w: %v", models.ErrInternalServer, r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return itemOutcome[T]{err: err}
	}
	value, err := h.Prepare(ctx, item)
	if err != nil {
		return itemOutcome[T]{err: err}
	}
	if err := h.Commit(ctx, []T{value}); err != nil {
		return itemOutcome[T]{err: err}
	}
	return itemOutcome[T]{value: value}
}
