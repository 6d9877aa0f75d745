package domain

import "time"

// Location é o local físico do estoque. O conjunto é fixo.
type Location string

const (
	LocationISV     Location = "ISV"
	LocationHouston Location = "Houston"
)

// Locations lista os locais aceitos, na ordem de exibição.
var Locations = []Location{LocationISV, LocationHouston}

// Valid informa se o local pertence à enumeração.
func (l Location) Valid() bool {
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

// StockRecord é uma linha de estoque: uma unidade serializada ou o pool sem serial
// de um produto num local.
type StockRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku"`
	Family     string    `json:"family"`
	PartNumber string    `json:"part_number"`
	Serial     string    `json:"serial"` // "" = estoque fungível (pool)
	Quantity   int       `json:"quantity"`
	Location   Location  `json:"location"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsSerialized informa se o registro representa uma unidade com número de série.
func (r StockRecord) IsSerialized() bool { return r.Serial != "" }

// Identity devolve a identidade de produto usada pelas regras de unicidade.
func (r StockRecord) Identity() StockIdentity {
	return StockIdentity{Name: r.Name, SKU: r.SKU, PartNumber: r.PartNumber, Location: r.Location}
}

// Group devolve a chave de agrupamento (nome, SKU, local).
func (r StockRecord) Group() GroupKey {
	return GroupKey{Name: r.Name, SKU: r.SKU, Location: r.Location}
}

// StockIdentity identifica um produto num local. Com o serial forma a chave única.
type StockIdentity struct {
	Name       string
	SKU        string
	PartNumber string
	Location   Location
}

// GroupKey identifica um grupo de registros para exibição e para a política de exclusão.
type GroupKey struct {
	Name     string   `json:"name"`
	SKU      string   `json:"sku"`
	Location Location `json:"location"`
}

// InventoryFilter define os critérios de busca de registros de estoque.
// Campos vazios não filtram. Serial == nil não filtra; ponteiro para "" busca só pools.
type InventoryFilter struct {
	Name       string
	SKU        string
	PartNumber string
	Location   Location
	Serial     *string
	Serials    []string
	ExcludeID  string
}

// NoSerial é o atalho para filtrar apenas registros sem serial.
func NoSerial() *string {
	empty := ""
	return &empty
}

// CreateInventoryRequest é o payload de entrada para criação de estoque.
type CreateInventoryRequest struct {
	Name       string   `json:"name" validate:"required"`
	SKU        string   `json:"sku" validate:"required"`
	Family     string   `json:"family" validate:"required"`
	PartNumber string   `json:"part_number" validate:"required"`
	Location   Location `json:"location" validate:"required"`
	Quantity   int      `json:"quantity" validate:"gte=0"`
	Serials    []string `json:"serial_numbers"`
}

// UpdateInventoryRequest substitui todos os campos de um registro.
type UpdateInventoryRequest struct {
	Name       string   `json:"name" validate:"required"`
	SKU        string   `json:"sku" validate:"required"`
	Family     string   `json:"family" validate:"required"`
	PartNumber string   `json:"part_number" validate:"required"`
	Serial     string   `json:"serial"`
	Quantity   *int     `json:"quantity" validate:"required,gte=0"`
	Location   Location `json:"location" validate:"required"`
}

// UpdateOutcome descreve o resultado de uma atualização.
// Quando Merged é true o registro atualizado foi absorvido pelo pool MergedInto.
type UpdateOutcome struct {
	Record     StockRecord `json:"record"`
	Merged     bool        `json:"merged"`
	MergedInto string      `json:"merged_into,omitempty"`
}

// DeleteAction nomeia o ramo da política de exclusão que foi aplicado.
type DeleteAction string

const (
	DeleteActionZeroed      DeleteAction = "quantity_zeroed"
	DeleteActionDecremented DeleteAction = "quantity_decremented"
	DeleteActionRemoved     DeleteAction = "removed"
	DeleteActionMerged      DeleteAction = "merged_into_pool"
)

// DeleteOutcome descreve o efeito de uma exclusão por registro.
type DeleteOutcome struct {
	Action  DeleteAction `json:"action"`
	Deleted bool         `json:"deleted"`
	Record  *StockRecord `json:"record,omitempty"`
	Purged  int64        `json:"purged,omitempty"`
}

// GroupedInventory é a projeção agregada (somente leitura) de um grupo.
type GroupedInventory struct {
	Name             string        `json:"name"`
	SKU              string        `json:"sku"`
	Family           string        `json:"family"`
	PartNumber       string        `json:"part_number"`
	Location         Location      `json:"location"`
	TotalQuantity    int           `json:"total_quantity"`
	Items            []StockRecord `json:"items"`
	HasSerialNumbers bool          `json:"has_serial_numbers"`
	SerialNumbers    []string      `json:"serial_numbers"`
	NoSerialRecordID string        `json:"no_serial_record_id,omitempty"`
}

// GroupSort é a ordenação de exibição escolhida por quem chama.
type GroupSort string

const (
	SortByQuantity GroupSort = "quantity"
	SortByName     GroupSort = "name"
)
