package onramp

// BillingDetails is the account-holder information attached to a mock bank
// account.
type BillingDetails struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Line1      string `json:"line1"`
	District   string `json:"district,omitempty"`
	PostalCode string `json:"postalCode"`
}

// CreateBankAccountRequest registers a mock bank account with the provider.
type CreateBankAccountRequest struct {
	IdempotencyKey string         `json:"idempotencyKey"`
	AccountNumber  string         `json:"accountNumber"`
	RoutingNumber  string         `json:"routingNumber"`
	BillingDetails BillingDetails `json:"billingDetails"`
}

// BankAccountResponse is the provider's bank account record.
type BankAccountResponse struct {
	Data struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		Description string `json:"description"`
	} `json:"data"`
}

// WireInstructionsResponse carries the beneficiary details a user would wire
// real funds to. Surfaced verbatim as illustrative deposit instructions.
type WireInstructionsResponse struct {
	Data struct {
		TrackingRef     string `json:"trackingRef"`
		BeneficiaryBank struct {
			Name          string `json:"name"`
			AccountNumber string `json:"accountNumber"`
			RoutingNumber string `json:"routingNumber"`
		} `json:"beneficiaryBank"`
	} `json:"data"`
}

// MockWireRequest simulates an inbound wire against a beneficiary account.
type MockWireRequest struct {
	TrackingRef   string     `json:"trackingRef,omitempty"`
	AccountNumber string     `json:"accountNumber"`
	Amount        MoneyField `json:"amount"`
}

// MoneyField is the provider's amount representation.
type MoneyField struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// CreateRecipientRequest registers an approved on-chain payout address.
type CreateRecipientRequest struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Address        string `json:"address"`
	Chain          string `json:"chain"`
	Currency       string `json:"currency"`
	Description    string `json:"description,omitempty"`
}

// RecipientResponse is the provider's recipient-address record.
type RecipientResponse struct {
	Data struct {
		ID      string `json:"id"`
		Address string `json:"address"`
		Chain   string `json:"chain"`
		Status  string `json:"status"`
	} `json:"data"`
}

// ProviderTransferRequest moves custodied balance to an approved recipient.
type ProviderTransferRequest struct {
	IdempotencyKey string     `json:"idempotencyKey"`
	RecipientID    string     `json:"destination"`
	Amount         MoneyField `json:"amount"`
}

// ProviderTransferResponse is the provider's payout record.
type ProviderTransferResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}
