package enums

import "fmt"

// OrderStatus tracks the payment/fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusFulfilling     OrderStatus = "fulfilling"
	OrderStatusFulfilled      OrderStatus = "fulfilled"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusRefunded       OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPaid,
	OrderStatusFulfilling,
	OrderStatusFulfilled,
	OrderStatusPaymentFailed,
	OrderStatusRefunded,
}

// allowedOrderTransitions is the single source of truth for the order state
// machine. pending_payment is the only initial state; fulfilled,
// payment_failed and refunded are terminal.
var allowedOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusPaid, OrderStatusPaymentFailed},
	OrderStatusPaid:           {OrderStatusFulfilling, OrderStatusRefunded},
	OrderStatusFulfilling:     {OrderStatusFulfilled, OrderStatusRefunded},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s OrderStatus) IsTerminal() bool {
	return len(allowedOrderTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range allowedOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
