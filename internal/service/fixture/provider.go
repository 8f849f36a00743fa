// Package fixture serves company snapshots from a YAML file for offline runs and demos.
package fixture

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"FinRatio/internal/domain/models"
	drepo "FinRatio/internal/domain/repository"
	"FinRatio/pkg/util"
)

// Provider is a FundamentalsProvider over an in-memory set of snapshots.
type Provider struct {
	snapshots map[string]*models.Snapshot
}

var _ drepo.FundamentalsProvider = (*Provider)(nil)

// Load reads a YAML document keyed by ticker.
func Load(path string) (*Provider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document keyed by ticker.
func Parse(b []byte) (*Provider, error) {
	var raw map[string]*models.Snapshot
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	p := &Provider{snapshots: make(map[string]*models.Snapshot, len(raw))}
	for t, s := range raw {
		if s == nil {
			continue
		}
		p.snapshots[util.NormalizeSymbol(t)] = s
	}
	return p, nil
}

// Len returns the number of tickers known to the provider.
func (p *Provider) Len() int { return len(p.snapshots) }

// Fetch returns a fresh copy of the ticker's snapshot.
func (p *Provider) Fetch(ctx context.Context, ticker string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, ok := p.snapshots[util.NormalizeSymbol(ticker)]
	if !ok {
		return nil, fmt.Errorf("fixture %s: %w", ticker, models.ErrTickerNotFound)
	}

	s := models.NewSnapshot(ticker)
	s.FetchedAt = time.Now().UTC()
	for k, v := range src.Profile {
		s.Profile[k] = v
	}
	copyStatement(s.BalanceSheet, src.BalanceSheet)
	copyStatement(s.IncomeStatement, src.IncomeStatement)
	copyStatement(s.CashFlow, src.CashFlow)
	return s, nil
}

func copyStatement(dst, src models.Statement) {
	for k, vs := range src {
		dst[k] = append([]float64(nil), vs...)
	}
}
