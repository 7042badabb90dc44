// Package chainparser decodes an obligation's raw on-chain representation
// into a canonical position record. It is the fallback path used when the
// structured source has no record, which is the designed behavior for
// bad-debt positions. No price oracle is consulted: USD values are zero and
// risk is reported as a coarse basis, never a precise ratio.
package chainparser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/pkg/coins"
	"github.com/archon-research/obrisk/internal/pkg/movetype"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

const tracerName = "github.com/archon-research/obrisk/internal/services/chainparser"

// Config holds configuration for the Parser.
type Config struct {
	// Logger is the structured logger.
	Logger *slog.Logger
}

// Parser reads an obligation object and its dynamic-field children directly
// from the chain.
type Parser struct {
	source   outbound.ObjectSource
	registry *coins.Registry
	logger   *slog.Logger
}

// NewParser creates a new Parser.
func NewParser(source outbound.ObjectSource, registry *coins.Registry, config Config) (*Parser, error) {
	if source == nil {
		return nil, errors.New("object source is required")
	}
	if registry == nil {
		return nil, errors.New("coin registry is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Parser{
		source:   source,
		registry: registry,
		logger:   config.Logger.With("component", "chain-parser"),
	}, nil
}

// ParseObligation fetches and decodes the obligation object with the given
// ID. Any per-child decode failure aborts the whole parse: a partial record
// would misstate total debt, which is safety-critical.
func (p *Parser) ParseObligation(ctx context.Context, obligationID string) (*entity.Position, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "chainparser.ParseObligation",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("obligation.id", obligationID)),
	)
	defer span.End()

	obj, err := p.source.GetObject(ctx, obligationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch obligation object")
		return nil, fmt.Errorf("fetching obligation %s: %w", obligationID, err)
	}
	if len(obj.Fields) == 0 {
		span.SetStatus(codes.Error, "obligation object has no content")
		return nil, fmt.Errorf("obligation %s has no decodable content: %w", obligationID, outbound.ErrObjectNotFound)
	}

	var fields obligationFields
	if err := decodeStrictEnough(obj.Fields, &fields); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode obligation fields")
		return nil, &DecodeError{ObjectID: obligationID, Path: "fields", Reason: err.Error()}
	}
	if fields.Debts == nil || fields.Collaterals == nil {
		err := &DecodeError{ObjectID: obligationID, Path: "fields", Reason: "missing debts or collaterals table"}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected obligation shape")
		return nil, err
	}

	debts, err := p.parseDebtTable(ctx, obligationID, fields.Debts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse debt table")
		return nil, err
	}
	collaterals, err := p.parseCollateralTable(ctx, obligationID, fields.Collaterals)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse collateral table")
		return nil, err
	}

	ratio, basis := classifyWithoutPrices(len(debts), len(collaterals))
	span.SetAttributes(
		attribute.Int("obligation.debt_count", len(debts)),
		attribute.Int("obligation.collateral_count", len(collaterals)),
		attribute.String("obligation.risk_basis", basis.String()),
	)
	p.logger.Info("parsed obligation from chain",
		"obligation", obligationID,
		"debts", len(debts),
		"collaterals", len(collaterals),
		"basis", basis.String())

	return entity.NewPosition(obligationID, debts, collaterals, ratio, basis)
}

// classifyWithoutPrices derives the coarse risk basis available to the raw
// path. With debt but no collateral the position is severely underwater; with
// both present the ratio is pinned to the liquidation threshold so the caller
// assumes liquidatable and verifies economics itself.
func classifyWithoutPrices(debtCount, collateralCount int) (decimal.Decimal, entity.RiskBasis) {
	switch {
	case debtCount > 0 && collateralCount == 0:
		return decimal.Zero, entity.RiskBasisSevere
	case debtCount > 0:
		return entity.LiquidationThreshold, entity.RiskBasisAssumed
	default:
		return decimal.Zero, entity.RiskBasisNone
	}
}

// parseDebtTable decodes the debt-side table into ordered entries.
func (p *Parser) parseDebtTable(ctx context.Context, obligationID string, table *tableField) ([]entity.DebtEntry, error) {
	raw, err := p.parseTable(ctx, obligationID, "debts", table, coins.DefaultDebtPrecision)
	if err != nil {
		return nil, err
	}
	entries := make([]entity.DebtEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, entity.DebtEntry{Asset: e.asset, Amount: e.amount, ValueUSD: decimal.Zero})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Asset.ShortName < entries[j].Asset.ShortName })
	return entries, nil
}

// parseCollateralTable decodes the collateral-side table into ordered entries.
func (p *Parser) parseCollateralTable(ctx context.Context, obligationID string, table *tableField) ([]entity.CollateralEntry, error) {
	raw, err := p.parseTable(ctx, obligationID, "collaterals", table, coins.DefaultCollateralPrecision)
	if err != nil {
		return nil, err
	}
	entries := make([]entity.CollateralEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, entity.CollateralEntry{Asset: e.asset, Amount: e.amount, ValueUSD: decimal.Zero})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Asset.ShortName < entries[j].Asset.ShortName })
	return entries, nil
}

// tableEntry is one decoded child of a debt or collateral table.
type tableEntry struct {
	asset  entity.AssetIdentity
	amount entity.AssetAmount
}

// parseTable enumerates and fetches the dynamic-field children of one table.
// A table declaring zero keys is skipped without a child-field call: the
// common no-collateral bad-debt case should not cost a network round trip.
// Children are fetched sequentially to avoid rate-limit bursts against the
// chain endpoint.
func (p *Parser) parseTable(ctx context.Context, obligationID, side string, table *tableField, defaultPrecision int) ([]tableEntry, error) {
	size, ok := new(big.Int).SetString(table.Fields.Table.Fields.Size, 10)
	if !ok {
		return nil, &DecodeError{ObjectID: obligationID, Path: side + ".table.size", Reason: fmt.Sprintf("not an integer: %q", table.Fields.Table.Fields.Size)}
	}
	if size.Sign() == 0 {
		p.logger.Debug("table declares zero keys, skipping child fetch", "obligation", obligationID, "side", side)
		return nil, nil
	}

	tableID := table.Fields.Table.Fields.ID.ID
	if tableID == "" {
		return nil, &DecodeError{ObjectID: obligationID, Path: side + ".table.id", Reason: "empty table object id"}
	}

	children, err := p.source.GetDynamicFields(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("listing %s entries of obligation %s: %w", side, obligationID, err)
	}

	entries := make([]tableEntry, 0, len(children))
	for _, child := range children {
		entry, err := p.parseChild(ctx, side, child.ObjectID, defaultPrecision)
		if err != nil {
			return nil, fmt.Errorf("decoding %s entry %s of obligation %s: %w", side, child.ObjectID, obligationID, err)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// parseChild fetches one table child and extracts its asset and raw amount.
func (p *Parser) parseChild(ctx context.Context, side, childID string, defaultPrecision int) (*tableEntry, error) {
	obj, err := p.source.GetObject(ctx, childID)
	if err != nil {
		return nil, err
	}

	var fields childFields
	if err := decodeStrictEnough(obj.Fields, &fields); err != nil {
		return nil, &DecodeError{ObjectID: childID, Path: "fields", Reason: err.Error()}
	}
	if fields.Value.Fields.Amount == "" {
		return nil, &DecodeError{ObjectID: childID, Path: "value.fields.amount", Reason: "missing amount"}
	}
	raw, ok := new(big.Int).SetString(fields.Value.Fields.Amount, 10)
	if !ok {
		return nil, &DecodeError{ObjectID: childID, Path: "value.fields.amount", Reason: fmt.Sprintf("not an integer: %q", fields.Value.Fields.Amount)}
	}

	coinType, err := extractCoinType(fields)
	if err != nil {
		return nil, &DecodeError{ObjectID: childID, Path: "value.type", Reason: err.Error()}
	}

	asset := p.registry.Resolve(coinType)
	precision := p.registry.PrecisionOrDefault(asset.ShortName, defaultPrecision)
	amount, err := entity.NewAssetAmount(raw, precision)
	if err != nil {
		return nil, &DecodeError{ObjectID: childID, Path: "value.fields.amount", Reason: err.Error()}
	}

	return &tableEntry{asset: asset, amount: amount}, nil
}

// extractCoinType pulls the embedded asset identifier out of a table child:
// the generic parameter of the value's wrapper type (e.g. the COIN in
// "...::obligation::Debt<...::coin::COIN>"), falling back to the dynamic
// field's name when the wrapper carries none.
func extractCoinType(fields childFields) (string, error) {
	if fields.Value.Type != "" {
		if t, err := movetype.Parse(fields.Value.Type); err == nil && t.TypeParam != "" {
			if inner, err := movetype.Parse(t.TypeParam); err == nil {
				return inner.String(), nil
			}
		}
	}
	if name := fields.Name.Fields.Name; name != "" {
		return "0x" + name, nil
	}
	return "", errors.New("no coin type found in child wrapper or field name")
}
