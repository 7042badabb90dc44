package txbuilderapi

// liquidateRequest is the builder's liquidation payload. Amounts travel as
// decimal strings.
type liquidateRequest struct {
	ObligationID     string `json:"obligationId"`
	DebtCoin         string `json:"debtCoin"`
	CollateralCoin   string `json:"collateralCoin"`
	RepayAmount      string `json:"repayAmount"`
	RecipientAddress string `json:"recipientAddress"`
}

// repayRequest is the builder's plain repayment payload.
type repayRequest struct {
	ObligationID     string `json:"obligationId"`
	DebtCoin         string `json:"debtCoin"`
	RepayAmount      string `json:"repayAmount"`
	RecipientAddress string `json:"recipientAddress"`
}

type submitResponse struct {
	Digest string `json:"digest"`
}

type errorResponse struct {
	Error string `json:"error"`
}
