package importer

import "strings"

// Profile describes the header spellings of one line-item spreadsheet layout.
// Adding a layout is adding a Profile to profiles.
type Profile struct {
	Name     string
	DescCol  []string
	QtyCol   []string
	PriceCol []string
	European bool // decimal comma, e.g. "1.234,56"
}

// profiles is tried in order; the first one whose columns all appear in a row wins.
var profiles = []Profile{
	{
		Name:     "standard",
		DescCol:  []string{"description"},
		QtyCol:   []string{"quantity"},
		PriceCol: []string{"unit price", "unit_price", "unitprice"},
	},
	{
		Name:     "short",
		DescCol:  []string{"item", "product", "service"},
		QtyCol:   []string{"qty", "units"},
		PriceCol: []string{"price", "rate"},
	},
	{
		Name:     "european",
		DescCol:  []string{"descrição", "descricao", "désignation", "beschreibung"},
		QtyCol:   []string{"quantidade", "quantité", "menge"},
		PriceCol: []string{"preço unitário", "preco unitario", "prix unitaire", "einzelpreis"},
		European: true,
	},
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// columns resolves the profile against a header row and reports the index of
// each column, or false when one is missing.
func (p Profile) columns(header map[string]int) (desc, qty, price int, ok bool) {
	find := func(names []string) (int, bool) {
		for _, n := range names {
			if i, found := header[n]; found {
				return i, true
			}
		}

		return -1, false
	}

	var okDesc, okQty, okPrice bool

	desc, okDesc = find(p.DescCol)
	qty, okQty = find(p.QtyCol)
	price, okPrice = find(p.PriceCol)

	return desc, qty, price, okDesc && okQty && okPrice
}
