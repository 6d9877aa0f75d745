package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentStatus é o estado de um envio.
type ShipmentStatus string

const (
	StatusRequested  ShipmentStatus = "requested"
	StatusProcessing ShipmentStatus = "processing"
	StatusInTransit  ShipmentStatus = "in_transit"
	StatusDelivered  ShipmentStatus = "delivered"
	StatusCanceled   ShipmentStatus = "canceled"
)

// transitions lista os próximos estados aceitos a partir de cada estado.
var transitions = map[ShipmentStatus][]ShipmentStatus{
	StatusRequested:  {StatusProcessing, StatusInTransit, StatusDelivered, StatusCanceled},
	StatusProcessing: {StatusInTransit, StatusDelivered, StatusCanceled},
	StatusInTransit:  {StatusDelivered, StatusCanceled},
}

// Valid informa se o status pertence à enumeração.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusProcessing, StatusInTransit, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// Terminal informa se o envio não aceita mais transições.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Active informa se o envio ainda retém seus números de série (não cancelado nem entregue).
func (s ShipmentStatus) Active() bool {
	return !s.Terminal()
}

// CanTransitionTo informa se a transição é permitida. Manter o mesmo status é sempre aceito.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineItem é uma linha do envio com o snapshot da identidade do registro reservado.
type LineItem struct {
	StockRecordID string          `json:"stock_record_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Family        string          `json:"family"`
	PartNumber    string          `json:"part_number"`
	Serial        string          `json:"serial"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
}

// ShipmentCosts agrupa os custos de frete e taxas do envio.
type ShipmentCosts struct {
	Freight            decimal.Decimal `json:"freight" validate:"gte=0"`
	MPFVAT             decimal.Decimal `json:"mpf_vat" validate:"gte=0"`
	Duties             decimal.Decimal `json:"duties" validate:"gte=0"`
	TTLIncidental      decimal.Decimal `json:"ttl_incidental" validate:"gte=0"`
	EndUserShippingFee decimal.Decimal `json:"end_user_shipping_fee" validate:"gte=0"`
}

// Shipment é uma transferência de saída de um ou mais registros de estoque.
type Shipment struct {
	ID        string         `json:"id"`
	PONumber  string         `json:"po_number"`
	From      Location       `json:"from"`
	To        string         `json:"to"`
	Status    ShipmentStatus `json:"status"`
	LineItems []LineItem     `json:"line_items"`
	Invoice   *int           `json:"invoice,omitempty"`
	Carrier   string         `json:"carrier,omitempty"`
	ShipmentCosts
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalAmount soma os valores das linhas.
func (s Shipment) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.LineItems {
		total = total.Add(item.Amount)
	}
	return total
}

// TotalShippingCost soma frete, MPF/VAT, impostos e incidentais.
func (s Shipment) TotalShippingCost() decimal.Decimal {
	return s.Freight.Add(s.MPFVAT).Add(s.Duties).Add(s.TTLIncidental)
}

// GrandTotal é o total das linhas mais custos de envio mais a taxa cobrada do cliente final.
func (s Shipment) GrandTotal() decimal.Decimal {
	return s.TotalAmount().Add(s.TotalShippingCost()).Add(s.EndUserShippingFee)
}

// MarshalJSON inclui os totais derivados, que nunca são persistidos.
func (s Shipment) MarshalJSON() ([]byte, error) {
	type plain Shipment
	return json.Marshal(struct {
		plain
		TotalAmount       decimal.Decimal `json:"total_amount"`
		TotalShippingCost decimal.Decimal `json:"total_shipping_cost"`
		GrandTotal        decimal.Decimal `json:"grand_total"`
	}{
		plain:             plain(s),
		TotalAmount:       s.TotalAmount(),
		TotalShippingCost: s.TotalShippingCost(),
		GrandTotal:        s.GrandTotal(),
	})
}

// LineItemInput é uma linha enviada pelo cliente; a identidade vem do registro reservado.
type LineItemInput struct {
	StockRecordID string          `json:"stock_record_id" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	Amount        decimal.Decimal `json:"amount" validate:"gte=0"`
}

// CreateShipmentRequest é o payload de criação de envio.
type CreateShipmentRequest struct {
	PONumber  string          `json:"po_number" validate:"required"`
	From      Location        `json:"from" validate:"required"`
	To        string          `json:"to" validate:"required"`
	LineItems []LineItemInput `json:"line_items" validate:"required,min=1,dive"`
	Invoice   *int            `json:"invoice" validate:"omitempty,gte=0"`
	Carrier   string          `json:"carrier"`
	ShipmentCosts
	Note string `json:"note"`
}

// ShipmentPatch é uma atualização parcial; campos nil não são alterados.
// LineItems != nil substitui a lista inteira de linhas.
type ShipmentPatch struct {
	Status             *ShipmentStatus  `json:"status"`
	LineItems          *[]LineItemInput `json:"line_items"`
	PONumber           *string          `json:"po_number"`
	To                 *string          `json:"to"`
	Invoice            *int             `json:"invoice"`
	Carrier            *string          `json:"carrier"`
	Freight            *decimal.Decimal `json:"freight"`
	MPFVAT             *decimal.Decimal `json:"mpf_vat"`
	Duties             *decimal.Decimal `json:"duties"`
	TTLIncidental      *decimal.Decimal `json:"ttl_incidental"`
	EndUserShippingFee *decimal.Decimal `json:"end_user_shipping_fee"`
	Note               *string          `json:"note"`
}

// ShipmentFilter define os filtros de listagem de envios.
type ShipmentFilter struct {
	PONumber string
	Status   ShipmentStatus
	From     Location
	To       string
}

// ShippedSerialQuery procura números de série retidos por envios ativos.
type ShippedSerialQuery struct {
	Name       string
	SKU        string
	PartNumber string
	Serials    []string
}
