package domain

const (
	DefaultCurrency   = "GHS"
	OwnerTypeCustomer = "customer"

	TxTypeDebit  = "DEBIT"
	TxTypeCredit = "CREDIT"

	// Purchase, transaction and disbursement rows share one lifecycle.
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"

	RefundReferencePrefix = "REFUND-"

	AggregatePurchase     = "PURCHASE"
	AggregateDisbursement = "DISBURSEMENT"
	AggregateQuery        = "QUERY"

	// Provider response log statuses that are not provider codes.
	ResponseStatusTransportError = "TRANSPORT_ERROR"
	ResponseStatusMalformed      = "MALFORMED"
	ResponseStatusRejected       = "REJECTED"
)

// Channel is the settlement rail a provider is configured for.
type Channel string

const (
	ChannelMomo    Channel = "MOMO"
	ChannelMobile  Channel = "MOBILE"
	ChannelUtility Channel = "UTILITY"
)

// Valid reports whether c is a known rail.
func (c Channel) Valid() bool {
	switch c {
	case ChannelMomo, ChannelMobile, ChannelUtility:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether status can no longer change.
func IsTerminal(status string) bool {
	return status == StatusSuccess || status == StatusFailed
}

// RefundReference returns the reference of the compensating credit for a purchase.
func RefundReference(reference string) string {
	return RefundReferencePrefix + reference
}
