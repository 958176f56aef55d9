package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
)

// Preview is an imported sheet with the totals the invoice would carry.
type Preview struct {
	*Result
	Totals invoice.Totals
}

type Service struct {
	parser *Parser
}

func NewService() *Service {
	return &Service{parser: NewParser()}
}

func (s *Service) Preview(r io.Reader) (*Preview, error) {
	res, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	totals, err := invoice.ComputeTotals(res.Items)
	if err != nil {
		return nil, fmt.Errorf("computing totals: %w", err)
	}

	return &Preview{Result: res, Totals: totals}, nil
}
