package inventoryservice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
	"stockledger/internal/service/inventoryservice"
)

func rec(id, name, serial string, qty int, loc domain.Location) domain.StockRecord {
	return domain.StockRecord{ID: id, Name: name, SKU: "SKU-" + name, Family: "F", PartNumber: "PN", Serial: serial, Quantity: qty, Location: loc}
}

func TestGroup_FoldsByNameSKULocation(t *testing.T) {
	records := []domain.StockRecord{
		rec("1", "Widget", "", 0, domain.LocationISV),
		rec("2", "Widget", "S2", 1, domain.LocationISV),
		rec("3", "Widget", "S1", 1, domain.LocationISV),
		rec("4", "Widget", "", 4, domain.LocationHouston),
		rec("5", "Gadget", "", 9, domain.LocationISV),
	}

	groups := inventoryservice.Group(records, domain.SortByQuantity)

	require.Len(t, groups, 3)
	assert.Equal(t, "Gadget", groups[0].Name)
	assert.Equal(t, 9, groups[0].TotalQuantity)

	assert.Equal(t, domain.LocationHouston, groups[1].Location)
	assert.Equal(t, 4, groups[1].TotalQuantity)

	isv := groups[2]
	assert.Equal(t, 2, isv.TotalQuantity)
	assert.True(t, isv.HasSerialNumbers)
	assert.Equal(t, []string{"S1", "S2"}, isv.SerialNumbers)
	assert.Len(t, isv.Items, 2, "placeholder com quantidade 0 não aparece nos itens")
	assert.Equal(t, "1", isv.NoSerialRecordID, "placeholder continua endereçável")
}

func TestGroup_SortByName(t *testing.T) {
	records := []domain.StockRecord{
		rec("1", "Zeta", "", 100, domain.LocationISV),
		rec("2", "Alpha", "", 1, domain.LocationISV),
		rec("3", "Alpha", "", 1, domain.LocationHouston),
	}

	groups := inventoryservice.Group(records, domain.SortByName)

	require.Len(t, groups, 3)
	assert.Equal(t, "Alpha", groups[0].Name)
	assert.Equal(t, domain.LocationHouston, groups[0].Location)
	assert.Equal(t, "Alpha", groups[1].Name)
	assert.Equal(t, "Zeta", groups[2].Name)
}

func TestGroup_EmptyGroupStillListed(t *testing.T) {
	groups := inventoryservice.Group([]domain.StockRecord{rec("1", "Widget", "", 0, domain.LocationISV)}, domain.SortByQuantity)

	require.Len(t, groups, 1)
	assert.Equal(t, 0, groups[0].TotalQuantity)
	assert.Empty(t, groups[0].Items)
	assert.False(t, groups[0].HasSerialNumbers)
	assert.Equal(t, "1", groups[0].NoSerialRecordID)
}
