package inventoryservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"stockledger/internal/domain"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
)

// generationKey é bumpada a cada mutação; as entradas do cache carregam a geração na
// chave, então uma geração nova torna todas as anteriores inalcançáveis.
const generationKey = "inventory:grouped:generation"

// GroupedView serve a projeção agrupada a partir do Redis, recalculando no banco em
// caso de miss. Misses concorrentes para a mesma chave fazem uma única leitura.
type GroupedView struct {
	records domain.InventoryRepository
	cache   cache.Client
	ttl     time.Duration
	flight  singleflight.Group
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewGroupedView cria a view. ttl limita quanto tempo uma entrada sobrevive sem bump.
func NewGroupedView(records domain.InventoryRepository, c cache.Client, ttl time.Duration,
	m *metrics.Metrics, logger logger.Logger) *GroupedView {
	return &GroupedView{records: records, cache: c, ttl: ttl, metrics: m, logger: logger}
}

func (v *GroupedView) generation(ctx context.Context) (int, bool) {
	gen, err := v.cache.GetInt(ctx, generationKey)
	if err == nil {
		return gen, true
	}
	if err == cache.ErrCacheMiss {
		return 0, true
	}
	v.metrics.ObserveCache("grouped_inventory", "error")
	v.logger.Warn("Cache indisponível; agrupando direto do banco.", map[string]interface{}{"error": err.Error()})
	return 0, false
}

// Get devolve os grupos do local (vazio = todos) na ordenação pedida.
func (v *GroupedView) Get(ctx context.Context, location domain.Location, by domain.GroupSort) ([]domain.GroupedInventory, error) {
	gen, cacheUp := v.generation(ctx)
	if !cacheUp {
		return v.compute(ctx, location, by)
	}

	key := fmt.Sprintf("inventory:grouped:%d:%s:%s", gen, location, by)
	if raw, err := v.cache.Get(ctx, key); err == nil {
		var groups []domain.GroupedInventory
		if json.Unmarshal([]byte(raw), &groups) == nil {
			v.metrics.ObserveCache("grouped_inventory", "hit")
			return groups, nil
		}
	}
	v.metrics.ObserveCache("grouped_inventory", "miss")

	// A leitura é compartilhada por todos que esperam a mesma chave; o cancelamento de
	// quem chegou primeiro não pode derrubar os outros. Os repositórios aplicam o próprio timeout.
	shared := context.WithoutCancel(ctx)
	res, err, _ := v.flight.Do(key, func() (interface{}, error) {
		groups, err := v.compute(shared, location, by)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(groups); err == nil {
			if err := v.cache.Set(shared, key, data, v.ttl); err != nil {
				v.logger.Warn("Falha ao gravar grupos no cache.", map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.GroupedInventory), nil
}

func (v *GroupedView) compute(ctx context.Context, location domain.Location, by domain.GroupSort) ([]domain.GroupedInventory, error) {
	records, err := v.records.List(ctx, domain.InventoryFilter{Location: location})
	if err != nil {
		return nil, err
	}
	return Group(records, by), nil
}

// Invalidate avança a geração. Falhas só são logadas: no pior caso o cache serve
// dados antigos até o TTL expirar.
func (v *GroupedView) Invalidate(ctx context.Context) {
	if _, err := v.cache.Incr(ctx, generationKey); err != nil {
		v.logger.Warn("Falha ao invalidar cache de grupos.", map[string]interface{}{"error": err.Error()})
	}
}
