package order

import (
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents the payment status of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentMethod represents how the customer pays for an order
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodVNPay        PaymentMethod = "vnpay"
	PaymentMethodMomo         PaymentMethod = "momo"
	PaymentMethodZaloPay      PaymentMethod = "zalopay"
)

// digitalGateways lists third-party payment providers whose payment status
// is authoritative on the provider side and must not be edited locally.
var digitalGateways = []PaymentMethod{
	PaymentMethodVNPay,
	PaymentMethodMomo,
	PaymentMethodZaloPay,
}

// statusTransitions is the single source of truth for allowed status changes.
// A self-transition is always listed, representing a no-op save.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPending, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusDelivered},
	OrderStatusCancelled:  {OrderStatusCancelled},
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states that allow no further change
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ValidateTransition returns a descriptive error for a disallowed status change
func (s OrderStatus) ValidateTransition(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !s.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot change order status from %s to %s", s, target))
	}
	return nil
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid checks if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch PaymentMethod(strings.ToLower(string(m))) {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodVNPay, PaymentMethodMomo, PaymentMethodZaloPay:
		return true
	}
	return false
}

// IsDigitalGateway reports whether the method is a third-party online
// payment provider. Matching is case-insensitive.
func (m PaymentMethod) IsDigitalGateway() bool {
	normalized := PaymentMethod(strings.ToLower(string(m)))
	for _, gw := range digitalGateways {
		if normalized == gw {
			return true
		}
	}
	return false
}
