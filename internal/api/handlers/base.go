package handlers

import (
	"context"
	"fmt"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/pkg/logger"
)

// base holds what every analytics handler needs
type base struct {
	provider      contracts.PriceProvider
	defaultPeriod string
	logger        *logger.Logger
}

// load fetches the aligned matrix for a normalized request
func (b *base) load(ctx context.Context, req TickersRequest) (*contracts.PriceMatrix, error) {
	m, err := b.provider.Prices(ctx, req.Tickers, req.Period)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	return m, nil
}
