package dto

import "time"

type LoginRequest struct {
	Payload string `json:"payload"`
}

type CreateBillRequest struct {
	AmountMinor int64      `json:"amount_minor"`
	Category    string     `json:"category"`
	Provider    string     `json:"provider"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type UpdateBillRequest struct {
	AmountMinor *int64     `json:"amount_minor,omitempty"`
	Provider    *string    `json:"provider,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type StakeCreditsRequest struct {
	Credits int64 `json:"credits"`
}

type CreateOfferRequest struct {
	BillID string `json:"bill_id"`
}

type AcceptOfferRequest struct {
	// Empty for a one-sided assist.
	BillID *string `json:"bill_id,omitempty"`
}

type ConfirmFeeRequest struct {
	ChargeReference string `json:"charge_reference"`
}

type ProposeTermsRequest struct {
	InitiatorFeeMinor    int64  `json:"initiator_fee_minor"`
	CounterpartyFeeMinor int64  `json:"counterparty_fee_minor"`
	ProofWindowHours     int    `json:"proof_window_hours"`
	FallbackPenalty      string `json:"fallback_penalty"`
}

type SubmitProofRequest struct {
	ProofType string `json:"proof_type"`
	URL       string `json:"url"`
}

type ReviewProofRequest struct {
	Accept bool `json:"accept"`
}

type RequestExtensionRequest struct {
	ExtraHours int `json:"extra_hours"`
}

type RespondExtensionRequest struct {
	Approve bool `json:"approve"`
}

type FileDisputeRequest struct {
	Reason  string  `json:"reason"`
	Details *string `json:"details,omitempty"`
}

type ResolveDisputeRequest struct {
	AtFaultUserID string `json:"at_fault_user_id"`
	Resolution    string `json:"resolution"`
}

type DismissDisputeRequest struct {
	Resolution string `json:"resolution"`
}
