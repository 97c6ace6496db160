package models

// PaymentSessionRequest asks the payment collaborator to open a checkout
// session for a pending booking. Amount is in cents of the tax-inclusive
// price.
type PaymentSessionRequest struct {
	BookingReference string            `json:"booking_reference"`
	AmountCents      int64             `json:"amount_cents"`
	PayerEmail       string            `json:"payer_email"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// PaymentSession is the collaborator's answer: a hosted checkout URL. The
// engine never interprets payment state itself; confirmation arrives later
// through the webhook glue.
type PaymentSession struct {
	URL string `json:"url"`
}
