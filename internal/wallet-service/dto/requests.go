package dto

type DepositRequest struct {
	UserID      string `json:"userId" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ExternalRef string `json:"external_ref,omitempty"` // opcional p/ idempotência simples
}

type ReserveRequest struct {
	UserID      string `json:"userId" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ExternalRef string `json:"external_ref" validate:"required"` // ex: slipId
}

// CreditRequest paga um prêmio; external_ref = "payout:<slipId>"
type CreditRequest struct {
	UserID      string `json:"userId" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ExternalRef string `json:"external_ref" validate:"required"`
}

type CommitRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ExternalRef string `json:"external_ref" validate:"required"`
}

type RefundRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ExternalRef string `json:"external_ref" validate:"required"`
}
