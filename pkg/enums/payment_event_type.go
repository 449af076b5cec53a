package enums

// PaymentEventType identifies the provider webhook event kinds the core
// reacts to. Anything else is acknowledged and ignored.
type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "payment_succeeded"
	PaymentEventFailed    PaymentEventType = "payment_failed"
)

// String implements fmt.Stringer.
func (t PaymentEventType) String() string {
	return string(t)
}
