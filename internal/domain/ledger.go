package domain

import "context"

// Transactor executa fn dentro de uma única transação. Se o contexto já
// carrega uma transação, fn participa dela.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InventoryRepository é o Record Store dos registros de estoque.
// Todas as operações participam da transação presente no contexto, se houver.
type InventoryRepository interface {
	Create(ctx context.Context, record StockRecord) (StockRecord, error)
	// AddToPool soma record.Quantity ao pool (serial "") da identidade, criando o pool
	// se ele ainda não existir. Criações concorrentes da mesma identidade somam no mesmo registro.
	AddToPool(ctx context.Context, record StockRecord) (StockRecord, error)
	FindByID(ctx context.Context, id string) (StockRecord, error)
	// FindOne devolve o registro mais antigo que casa com o filtro, ou NotFoundError.
	FindOne(ctx context.Context, filter InventoryFilter) (StockRecord, error)
	List(ctx context.Context, filter InventoryFilter) ([]StockRecord, error)
	Update(ctx context.Context, record StockRecord) (StockRecord, error)
	// AdjustQuantity soma delta à quantidade de forma atômica. Se o resultado ficaria
	// negativo nada muda e retorna InsufficientStockError com a quantidade atual.
	AdjustQuantity(ctx context.Context, id string, delta int) (StockRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteGroup(ctx context.Context, key GroupKey) (int64, error)
	// DeleteEmpty remove as linhas com quantidade 0 do grupo.
	DeleteEmpty(ctx context.Context, key GroupKey) (int64, error)
}

// ShipmentRepository é o Record Store dos envios.
type ShipmentRepository interface {
	Create(ctx context.Context, shipment Shipment) (Shipment, error)
	FindByID(ctx context.Context, id string) (Shipment, error)
	List(ctx context.Context, filter ShipmentFilter) ([]Shipment, error)
	Update(ctx context.Context, shipment Shipment) (Shipment, error)
	Delete(ctx context.Context, id string) error
	// ShippedSerials devolve quais dos seriais consultados estão em envios ativos.
	ShippedSerials(ctx context.Context, query ShippedSerialQuery) ([]string, error)
}

// InventoryService é o Stock Ledger exposto ao Handler.
type InventoryService interface {
	Create(ctx context.Context, req CreateInventoryRequest) ([]StockRecord, error)
	Update(ctx context.Context, id string, req UpdateInventoryRequest) (UpdateOutcome, error)
	Delete(ctx context.Context, id string) (DeleteOutcome, error)
	DeleteGroup(ctx context.Context, key GroupKey) (int64, error)
	List(ctx context.Context, location Location) ([]StockRecord, error)
	Grouped(ctx context.Context, location Location, sort GroupSort) ([]GroupedInventory, error)
}

// ShipmentService é o Shipment Engine exposto ao Handler.
type ShipmentService interface {
	Create(ctx context.Context, req CreateShipmentRequest) (Shipment, error)
	Get(ctx context.Context, id string) (Shipment, error)
	List(ctx context.Context, filter ShipmentFilter) ([]Shipment, error)
	Update(ctx context.Context, id string, patch ShipmentPatch) (Shipment, error)
	Delete(ctx context.Context, id string, restoreStock bool) error
}
