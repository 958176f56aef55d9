package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	enc "github.com/MrJamesThe3rd/invoicebox/internal/encoding"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
)

var ErrNoHeader = errors.New("no line item header found: expected description, quantity and unit price columns")

// Result is the parsed content of an uploaded sheet.
type Result struct {
	Profile   string
	Charset   string
	Delimiter string
	Items     []invoice.LineItem
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a CSV of line items in any supported layout and encoding. Rows
// before the header are ignored; blank rows after it are skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	decoded, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(decoded)
	comma := sniffDelimiter(br)

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, ErrNoHeader
	}

	items, err := parseRows(profile, cols, rows[headerIdx+1:])
	if err != nil {
		return nil, err
	}

	return &Result{
		Profile:   profile.Name,
		Charset:   decoded.Charset,
		Delimiter: string(comma),
		Items:     items,
	}, nil
}

// sniffDelimiter picks ';' or ',' by counting them on the first line.
func sniffDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(br.Size())
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}

	if strings.Count(string(line), ";") > strings.Count(string(line), ",") {
		return ';'
	}

	return ','
}

type columnSet struct {
	desc, qty, price int
}

func detectProfile(rows [][]string) (*Profile, columnSet, int) {
	for rowIdx, row := range rows {
		header := make(map[string]int, len(row))

		for i, cell := range row {
			if name := normalizeHeader(cell); name != "" {
				header[name] = i
			}
		}

		for i := range profiles {
			desc, qty, price, ok := profiles[i].columns(header)
			if ok {
				return &profiles[i], columnSet{desc: desc, qty: qty, price: price}, rowIdx
			}
		}
	}

	return nil, columnSet{}, 0
}

// parseRows turns data rows into line items. Indexes in validation errors
// count data rows from zero, matching the item's position on the invoice.
func parseRows(p *Profile, cols columnSet, rows [][]string) ([]invoice.LineItem, error) {
	var items []invoice.LineItem

	for _, row := range rows {
		desc := cellValue(row, cols.desc)
		qty := cellValue(row, cols.qty)
		price := cellValue(row, cols.price)

		if desc == "" && qty == "" && price == "" {
			continue
		}

		li, err := invoice.ParseLineItem(len(items), desc, normalizeAmount(qty, p.European), normalizeAmount(price, p.European))
		if err != nil {
			return nil, err
		}

		items = append(items, li)
	}

	return items, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
