package marketplace

// Operation names used for metrics, spans and compensation reports
const (
	OpList     = "list"
	OpPurchase = "purchase"
	OpCancel   = "cancel"
	OpExpire   = "expire"
)

// Compensation step names
const (
	StepReserveItems = "reserve_items"
	StepCreate       = "create_listing"
	StepDebitBuyer   = "debit_buyer"
	StepCreditSeller = "credit_seller"
	StepReturnItems  = "return_items"
)

// Search sort keys
const (
	SortByCreatedAt = "created_at"
	SortByPrice     = "price"
)

// Defaults
const (
	DefaultSweepBatchSize = 100
	DefaultSearchLimit    = 50
	MaxSearchLimit        = 200
)

// Log messages
const (
	LogMsgListingCreated   = "Listing created"
	LogMsgListingSold      = "Listing sold"
	LogMsgListingCancelled = "Listing cancelled"
	LogMsgListingExpired   = "Listing expired"
	LogMsgSweepCompleted   = "Expiry sweep completed"
	LogMsgSweepItemFailed  = "Failed to expire listing"
	LogMsgPublishFailed    = "Failed to publish marketplace event"
)
