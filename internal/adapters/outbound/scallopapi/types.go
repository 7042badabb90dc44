package scallopapi

import "github.com/shopspring/decimal"

// obligationRecord matches the indexer's obligation answer.
type obligationRecord struct {
	// RiskLevel is the indexer's computed risk ratio; 1 and above means
	// eligible for liquidation.
	RiskLevel decimal.Decimal `json:"riskLevel"`

	// Debts and Collaterals are keyed by the protocol's lowercase short
	// asset name.
	Debts       map[string]assetRecord `json:"debts"`
	Collaterals map[string]assetRecord `json:"collaterals"`
}

// assetRecord is one priced asset entry.
type assetRecord struct {
	CoinType string `json:"coinType"`

	// Amount is the raw on-chain amount as a decimal string. Kept as a
	// string on the wire; u64 amounts overflow float64.
	Amount string `json:"amount"`

	// CoinDecimal is the asset's precision.
	CoinDecimal int `json:"coinDecimal"`

	ValueUSD decimal.Decimal `json:"valueUsd"`
}
