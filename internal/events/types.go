package events

// Event type constants, formatted as domain.action

// Message events
const (
	EventTypeMessageCreated = "message.created"
	EventTypeMessageRead    = "message.read"
)

// Design request events
const (
	EventTypeRevisionRequested  = "design_request.revision_requested"
	EventTypeRevisionsPurchased = "design_request.revisions_purchased"
	EventTypeDeliveryFinalized  = "design_request.delivery_finalized"
	EventTypeRequestCanceled    = "design_request.canceled"
	EventTypeQuotationSelected  = "design_request.quotation_selected"
)

// Payment events
const (
	EventTypePaymentRequested = "payment.requested"
	EventTypePaymentPaid      = "payment.paid"
	EventTypePaymentFailed    = "payment.failed"
)

// Aggregate type constants
const (
	AggregateTypeRoom          = "room"
	AggregateTypeDesignRequest = "design_request"
	AggregateTypePayment       = "payment"
)

// Redis channel prefixes
const (
	ChannelPrefixRoom   = "channel:room:"
	ChannelPrefixSchool = "channel:school:"
)
