package outbound

import (
	"context"
	"math/big"
)

// LiquidateRequest asks the builder to repay part of an obligation's debt in
// exchange for discounted collateral.
type LiquidateRequest struct {
	ObligationID        string
	DebtShortName       string
	CollateralShortName string
	RepayRaw            *big.Int
	WalletAddress       string
}

// RepayRequest asks the builder to repay obligation debt outright, with no
// collateral in return.
type RepayRequest struct {
	ObligationID  string
	DebtShortName string
	RepayRaw      *big.Int
	WalletAddress string
}

// TxResult is the outcome of a submitted transaction.
type TxResult struct {
	Digest string
}

// TransactionBuilder submits liquidation and repayment transactions. It owns
// oracle price refresh, coin selection, contract calls, residual transfer,
// signing and submission; the core only hands it a plan. Raised errors are
// classified post-hoc by the plan executor.
type TransactionBuilder interface {
	Liquidate(ctx context.Context, req LiquidateRequest) (*TxResult, error)
	Repay(ctx context.Context, req RepayRequest) (*TxResult, error)
}
