// Package positionquery resolves an obligation ID into a canonical position
// record. It owns the two-tier lookup: the structured source is asked first
// and is authoritative when it answers; a null answer (the designed outcome
// for bad-debt positions) delegates to the raw chain parser. Callers never
// see which path ran except through the record's fidelity: zero USD values
// signal the fallback.
package positionquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

const tracerName = "github.com/archon-research/obrisk/internal/services/positionquery"

// ObligationParser is the raw-chain fallback. Satisfied by
// chainparser.Parser.
type ObligationParser interface {
	ParseObligation(ctx context.Context, obligationID string) (*entity.Position, error)
}

// Config holds configuration for the Service.
type Config struct {
	// Logger is the structured logger.
	Logger *slog.Logger
}

// Service performs the two-tier position lookup.
type Service struct {
	source outbound.StructuredPositionSource
	parser ObligationParser
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(source outbound.StructuredPositionSource, parser ObligationParser, config Config) (*Service, error) {
	if source == nil {
		return nil, errors.New("structured position source is required")
	}
	if parser == nil {
		return nil, errors.New("obligation parser is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Service{
		source: source,
		parser: parser,
		logger: config.Logger.With("component", "position-query"),
	}, nil
}

// QueryPosition resolves an obligation into a canonical position record. A
// missing structured record is a normal outcome, not an error; only transport
// and decode failures propagate.
func (s *Service) QueryPosition(ctx context.Context, obligationID string) (*entity.Position, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "positionquery.QueryPosition",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("obligation.id", obligationID)),
	)
	defer span.End()

	structured, err := s.source.GetObligation(ctx, obligationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "structured source query failed")
		return nil, fmt.Errorf("querying structured source for %s: %w", obligationID, err)
	}

	if structured == nil {
		span.SetAttributes(attribute.String("query.path", "raw-chain"))
		s.logger.Info("structured source has no record, falling back to raw parse", "obligation", obligationID)
		pos, err := s.parser.ParseObligation(ctx, obligationID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "raw-chain parse failed")
			return nil, err
		}
		return pos, nil
	}

	span.SetAttributes(attribute.String("query.path", "structured"))
	pos, err := s.normalize(obligationID, structured)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "structured record normalization failed")
		return nil, fmt.Errorf("normalizing structured record for %s: %w", obligationID, err)
	}
	s.logger.Info("resolved position from structured source",
		"obligation", obligationID,
		"debts", len(pos.Debts),
		"collaterals", len(pos.Collaterals),
		"risk", pos.RiskRatio)
	return pos, nil
}

// normalize converts the structured source's short-name-keyed maps into a
// position record with deterministically ordered entries. The source's risk
// ratio is authoritative.
func (s *Service) normalize(obligationID string, o *outbound.StructuredObligation) (*entity.Position, error) {
	debts := make([]entity.DebtEntry, 0, len(o.Debts))
	for shortName, asset := range o.Debts {
		identity, amount, err := normalizeAsset(shortName, asset)
		if err != nil {
			return nil, fmt.Errorf("debt %q: %w", shortName, err)
		}
		debts = append(debts, entity.DebtEntry{Asset: identity, Amount: amount, ValueUSD: asset.ValueUSD})
	}
	sort.SliceStable(debts, func(i, j int) bool { return debts[i].Asset.ShortName < debts[j].Asset.ShortName })

	collaterals := make([]entity.CollateralEntry, 0, len(o.Collaterals))
	for shortName, asset := range o.Collaterals {
		identity, amount, err := normalizeAsset(shortName, asset)
		if err != nil {
			return nil, fmt.Errorf("collateral %q: %w", shortName, err)
		}
		collaterals = append(collaterals, entity.CollateralEntry{Asset: identity, Amount: amount, ValueUSD: asset.ValueUSD})
	}
	sort.SliceStable(collaterals, func(i, j int) bool { return collaterals[i].Asset.ShortName < collaterals[j].Asset.ShortName })

	basis := entity.RiskBasisExact
	if len(debts) == 0 {
		basis = entity.RiskBasisNone
	}
	return entity.NewPosition(obligationID, debts, collaterals, o.RiskRatio, basis)
}

// normalizeAsset validates one structured entry at the boundary: unknown
// shapes are rejected, not coerced.
func normalizeAsset(shortName string, asset outbound.StructuredAsset) (entity.AssetIdentity, entity.AssetAmount, error) {
	// Downstream transaction calls require the lowercase form.
	shortName = strings.ToLower(shortName)
	typeTag := asset.TypeTag
	if typeTag == "" {
		// The source keys by short name and may omit the coin type; the
		// short name still satisfies downstream calls.
		typeTag = shortName
	}
	display := shortName
	identity, err := entity.NewAssetIdentity(typeTag, shortName, display)
	if err != nil {
		return entity.AssetIdentity{}, entity.AssetAmount{}, err
	}
	if asset.RawAmount == nil {
		return entity.AssetIdentity{}, entity.AssetAmount{}, errors.New("missing raw amount")
	}
	amount, err := entity.NewAssetAmount(asset.RawAmount, asset.Precision)
	if err != nil {
		return entity.AssetIdentity{}, entity.AssetAmount{}, err
	}
	return identity, amount, nil
}
