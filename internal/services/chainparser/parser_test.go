package chainparser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/pkg/coins"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// mockObjectSource implements outbound.ObjectSource for testing.
type mockObjectSource struct {
	objects           map[string]*outbound.RawObject
	children          map[string][]outbound.DynamicFieldInfo
	dynamicFieldCalls int
}

func (m *mockObjectSource) GetObject(ctx context.Context, objectID string) (*outbound.RawObject, error) {
	obj, ok := m.objects[objectID]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", objectID, outbound.ErrObjectNotFound)
	}
	return obj, nil
}

func (m *mockObjectSource) GetDynamicFields(ctx context.Context, parentID string) ([]outbound.DynamicFieldInfo, error) {
	m.dynamicFieldCalls++
	return m.children[parentID], nil
}

const wusdcType = "0x5d4b302506645c37ff133b98c4b50a5ae14841659738d6d733d59d0d217a93bf::coin::COIN"

func obligationJSON(debtTableID string, debtSize int, collTableID string, collSize int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"debts": {"fields": {"table": {"fields": {"id": {"id": %q}, "size": "%d"}}}},
		"collaterals": {"fields": {"table": {"fields": {"id": {"id": %q}, "size": "%d"}}}}
	}`, debtTableID, debtSize, collTableID, collSize))
}

func debtChildJSON(coinType, amount string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"name": {"fields": {"name": %q}},
		"value": {"type": "0xaa::obligation::Debt<%s>", "fields": {"amount": %q, "borrow_index": "1000"}}
	}`, coinType[2:], coinType, amount))
}

func collateralChildJSON(coinType, amount string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"name": {"fields": {"name": %q}},
		"value": {"type": "0xaa::obligation::Collateral<%s>", "fields": {"amount": %q}}
	}`, coinType[2:], coinType, amount))
}

func newTestParser(t *testing.T, source outbound.ObjectSource) *Parser {
	t.Helper()
	p, err := NewParser(source, coins.DefaultRegistry(), Config{})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	return p
}

func TestParseObligationBadDebt(t *testing.T) {
	// Debt present, collateral table empty: the classic bad-debt shape.
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob", Type: "0xaa::obligation::Obligation", Fields: obligationJSON("0xdebts", 1, "0xcolls", 0)},
			"0xd1": {ObjectID: "0xd1", Fields: debtChildJSON(wusdcType, "10591093")},
		},
		children: map[string][]outbound.DynamicFieldInfo{
			"0xdebts": {{ObjectID: "0xd1"}},
		},
	}

	pos, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("ParseObligation: %v", err)
	}

	if len(pos.Debts) != 1 || len(pos.Collaterals) != 0 {
		t.Fatalf("got %d debts, %d collaterals", len(pos.Debts), len(pos.Collaterals))
	}
	debt := pos.Debts[0]
	if debt.Asset.ShortName != "wusdc" {
		t.Errorf("debt asset = %s, want wusdc", debt.Asset.ShortName)
	}
	if debt.Amount.Raw.Int64() != 10591093 || debt.Amount.Precision != 6 {
		t.Errorf("debt amount = %s @ %d", debt.Amount.Raw, debt.Amount.Precision)
	}
	if !debt.ValueUSD.IsZero() {
		t.Errorf("raw path must not price entries, got %s", debt.ValueUSD)
	}
	if pos.RiskBasis != entity.RiskBasisSevere {
		t.Errorf("basis = %s, want severe", pos.RiskBasis)
	}
	if pos.Liquidatable() {
		t.Error("bad debt must not be liquidatable")
	}
	if !pos.BadDebt() {
		t.Error("expected bad debt")
	}
}

func TestParseObligationBothSides(t *testing.T) {
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob", Fields: obligationJSON("0xdebts", 1, "0xcolls", 1)},
			"0xd1": {ObjectID: "0xd1", Fields: debtChildJSON(wusdcType, "120000000")},
			"0xc1": {ObjectID: "0xc1", Fields: collateralChildJSON("0x2::sui::SUI", "100500000000")},
		},
		children: map[string][]outbound.DynamicFieldInfo{
			"0xdebts": {{ObjectID: "0xd1"}},
			"0xcolls": {{ObjectID: "0xc1"}},
		},
	}

	pos, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("ParseObligation: %v", err)
	}

	if pos.RiskBasis != entity.RiskBasisAssumed {
		t.Errorf("basis = %s, want assumed", pos.RiskBasis)
	}
	if !pos.RiskRatio.Equal(entity.LiquidationThreshold) {
		t.Errorf("assumed ratio = %s, want threshold", pos.RiskRatio)
	}
	if !pos.Liquidatable() {
		t.Error("assumed-basis position with both sides should be treated as liquidatable")
	}
	if pos.Collaterals[0].Asset.ShortName != "sui" || pos.Collaterals[0].Amount.Precision != 9 {
		t.Errorf("collateral = %s @ %d", pos.Collaterals[0].Asset.ShortName, pos.Collaterals[0].Amount.Precision)
	}
}

func TestParseObligationZeroKeyTableSkipsChildFetch(t *testing.T) {
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob", Fields: obligationJSON("0xdebts", 0, "0xcolls", 0)},
		},
	}

	pos, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("ParseObligation: %v", err)
	}
	if len(pos.Debts) != 0 || len(pos.Collaterals) != 0 {
		t.Errorf("got %d debts, %d collaterals, want none", len(pos.Debts), len(pos.Collaterals))
	}
	if source.dynamicFieldCalls != 0 {
		t.Errorf("zero-key tables must not trigger child-field fetches, got %d calls", source.dynamicFieldCalls)
	}
	if pos.RiskBasis != entity.RiskBasisNone {
		t.Errorf("basis = %s, want none", pos.RiskBasis)
	}
}

func TestParseObligationNotFound(t *testing.T) {
	source := &mockObjectSource{objects: map[string]*outbound.RawObject{}}
	_, err := newTestParser(t, source).ParseObligation(context.Background(), "0xmissing")
	if !errors.Is(err, outbound.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestParseObligationEmptyContent(t *testing.T) {
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob"},
		},
	}
	_, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	if !errors.Is(err, outbound.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound for contentless object, got %v", err)
	}
}

func TestParseObligationChildDecodeErrorAborts(t *testing.T) {
	// Two debt children; the second has a garbage amount. The whole parse
	// must fail rather than return a partial record.
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob", Fields: obligationJSON("0xdebts", 2, "0xcolls", 0)},
			"0xd1": {ObjectID: "0xd1", Fields: debtChildJSON(wusdcType, "100")},
			"0xd2": {ObjectID: "0xd2", Fields: debtChildJSON("0x2::sui::SUI", "not-a-number")},
		},
		children: map[string][]outbound.DynamicFieldInfo{
			"0xdebts": {{ObjectID: "0xd1"}, {ObjectID: "0xd2"}},
		},
	}

	_, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.ObjectID != "0xd2" {
		t.Errorf("DecodeError.ObjectID = %s, want 0xd2", decodeErr.ObjectID)
	}
}

func TestParseObligationEntriesSortedByShortName(t *testing.T) {
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob", Fields: obligationJSON("0xdebts", 2, "0xcolls", 0)},
			"0xd1": {ObjectID: "0xd1", Fields: debtChildJSON(wusdcType, "100")},
			"0xd2": {ObjectID: "0xd2", Fields: debtChildJSON("0x2::sui::SUI", "200")},
		},
		children: map[string][]outbound.DynamicFieldInfo{
			// Chain order: wusdc first, sui second.
			"0xdebts": {{ObjectID: "0xd1"}, {ObjectID: "0xd2"}},
		},
	}

	pos, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("ParseObligation: %v", err)
	}
	if pos.Debts[0].Asset.ShortName != "sui" || pos.Debts[1].Asset.ShortName != "wusdc" {
		t.Errorf("entries not sorted by short name: %s, %s",
			pos.Debts[0].Asset.ShortName, pos.Debts[1].Asset.ShortName)
	}
}

func TestParseObligationUnknownAssetDefaults(t *testing.T) {
	source := &mockObjectSource{
		objects: map[string]*outbound.RawObject{
			"0xob": {ObjectID: "0xob", Fields: obligationJSON("0xdebts", 1, "0xcolls", 1)},
			"0xd1": {ObjectID: "0xd1", Fields: debtChildJSON("0xfeed::mystery::MYSTERY", "42")},
			"0xc1": {ObjectID: "0xc1", Fields: collateralChildJSON("0xfeed::other::OTHER", "43")},
		},
		children: map[string][]outbound.DynamicFieldInfo{
			"0xdebts": {{ObjectID: "0xd1"}},
			"0xcolls": {{ObjectID: "0xc1"}},
		},
	}

	pos, err := newTestParser(t, source).ParseObligation(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("ParseObligation: %v", err)
	}
	if got := pos.Debts[0].Amount.Precision; got != coins.DefaultDebtPrecision {
		t.Errorf("unknown debt precision = %d, want %d", got, coins.DefaultDebtPrecision)
	}
	if got := pos.Collaterals[0].Amount.Precision; got != coins.DefaultCollateralPrecision {
		t.Errorf("unknown collateral precision = %d, want %d", got, coins.DefaultCollateralPrecision)
	}
	if pos.Debts[0].Asset.ShortName != "mystery" {
		t.Errorf("fallback short name = %s, want mystery", pos.Debts[0].Asset.ShortName)
	}
}
