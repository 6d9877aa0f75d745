package inventoryservice

import (
	"sort"

	"stockledger/internal/domain"
)

// Group dobra os registros em uma entrada por (nome, SKU, local). O total conta todos os
// registros; Items e SerialNumbers só os que têm quantidade > 0. O id do pool fica
// exposto mesmo com quantidade 0 para que o placeholder continue endereçável.
func Group(records []domain.StockRecord, by domain.GroupSort) []domain.GroupedInventory {
	index := make(map[domain.GroupKey]int)
	groups := []domain.GroupedInventory{}

	for _, rec := range records {
		key := rec.Group()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.GroupedInventory{
				Name:          rec.Name,
				SKU:           rec.SKU,
				Family:        rec.Family,
				PartNumber:    rec.PartNumber,
				Location:      rec.Location,
				Items:         []domain.StockRecord{},
				SerialNumbers: []string{},
			})
		}

		g := &groups[i]
		g.TotalQuantity += rec.Quantity
		if !rec.IsSerialized() && g.NoSerialRecordID == "" {
			g.NoSerialRecordID = rec.ID
		}
		if rec.Quantity <= 0 {
			continue
		}
		g.Items = append(g.Items, rec)
		if rec.IsSerialized() {
			g.SerialNumbers = append(g.SerialNumbers, rec.Serial)
		}
	}

	for i := range groups {
		sort.Strings(groups[i].SerialNumbers)
		groups[i].HasSerialNumbers = len(groups[i].SerialNumbers) > 0
	}

	sortGroups(groups, by)
	return groups
}

func sortGroups(groups []domain.GroupedInventory, by domain.GroupSort) {
	byName := func(a, b domain.GroupedInventory) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.SKU != b.SKU {
			return a.SKU < b.SKU
		}
		return a.Location < b.Location
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if by == domain.SortByName {
			return byName(groups[i], groups[j])
		}
		if groups[i].TotalQuantity != groups[j].TotalQuantity {
			return groups[i].TotalQuantity > groups[j].TotalQuantity
		}
		return byName(groups[i], groups[j])
	})
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
