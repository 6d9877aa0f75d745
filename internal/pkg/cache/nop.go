package cache

import (
	"context"
	"time"
)

// NopClient é um cache sempre vazio; usado nos testes e quando REDIS_ADDR está vazio.
type NopClient struct{}

func (NopClient) Get(context.Context, string) (string, error) { return "", ErrCacheMiss }

func (NopClient) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NopClient) Delete(context.Context, string) error { return nil }

func (NopClient) GetInt(context.Context, string) (int, error) { return 0, ErrCacheMiss }

func (NopClient) Incr(context.Context, string) (int64, error) { return 1, nil }

func (NopClient) Expire(context.Context, string, time.Duration) error { return nil }
