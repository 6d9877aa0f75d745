package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"stockledger/internal/pkg/logger"
)

// BreakerClient envolve um Client com um circuit breaker. Com o circuito aberto as
// chamadas falham de imediato com gobreaker.ErrOpenState e quem chama cai no banco.
type BreakerClient struct {
	next    Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewBreakerClient cria o decorator. O circuito abre após 5 falhas seguidas e tenta
// fechar depois de 30s. timeout limita cada comando individual.
func NewBreakerClient(next Client, timeout time.Duration, log logger.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Cache miss não é falha de infraestrutura.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker do cache mudou de estado", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	return &BreakerClient{next: next, cb: gobreaker.NewCircuitBreaker(settings), timeout: timeout}
}

func (b *BreakerClient) run(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return b.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		return fn(ctx)
	})
}

func (b *BreakerClient) Get(ctx context.Context, key string) (string, error) {
	v, err := b.run(ctx, func(ctx context.Context) (interface{}, error) { return b.next.Get(ctx, key) })
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *BreakerClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_, err := b.run(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, b.next.Set(ctx, key, value, expiration)
	})
	return err
}

func (b *BreakerClient) Delete(ctx context.Context, key string) error {
	_, err := b.run(ctx, func(ctx context.Context) (interface{}, error) { return nil, b.next.Delete(ctx, key) })
	return err
}

func (b *BreakerClient) GetInt(ctx context.Context, key string) (int, error) {
	v, err := b.run(ctx, func(ctx context.Context) (interface{}, error) { return b.next.GetInt(ctx, key) })
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (b *BreakerClient) Incr(ctx context.Context, key string) (int64, error) {
	v, err := b.run(ctx, func(ctx context.Context) (interface{}, error) { return b.next.Incr(ctx, key) })
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (b *BreakerClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	_, err := b.run(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, b.next.Expire(ctx, key, expiration)
	})
	return err
}
