package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderItem represents a line item in an order
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid" json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID, productID uuid.UUID, productName, sku string, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	qty := decimal.NewFromInt(int64(quantity))
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		SKU:         sku,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      qty.Mul(unitPrice),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Order represents a customer order aggregate root.
// Status changes only through the transition table in status.go.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string          `gorm:"uniqueIndex" json:"order_number"`
	UserID          uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	CustomerName    string          `json:"customer_name"`
	Phone           string          `json:"phone"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_amount"`
	PayableAmount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"payable_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Note            string          `json:"note"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
}

// NewOrder creates a new order in pending status with pending payment
func NewOrder(orderNumber string, userID uuid.UUID, customerName, phone, shippingAddress string, method PaymentMethod) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if shippingAddress == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		UserID:            userID,
		CustomerName:      customerName,
		Phone:             phone,
		ShippingAddress:   shippingAddress,
		Items:             make([]OrderItem, 0),
		TotalAmount:       decimal.Zero,
		DiscountAmount:    decimal.Zero,
		PayableAmount:     decimal.Zero,
		Status:            OrderStatusPending,
		PaymentStatus:     PaymentStatusPending,
		PaymentMethod:     method,
	}, nil
}

// AddItem adds a line item to the order. Only allowed while pending.
func (o *Order) AddItem(productID uuid.UUID, productName, sku string, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-pending order")
	}

	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	item, err := NewOrderItem(o.ID, productID, productName, sku, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return item, nil
}

// ApplyDiscount applies an order-level discount. Only allowed while pending.
func (o *Order) ApplyDiscount(discount decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply discount to a non-pending order")
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if discount.GreaterThan(o.TotalAmount) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed total amount")
	}

	o.DiscountAmount = discount
	o.PayableAmount = o.TotalAmount.Sub(o.DiscountAmount)
	o.UpdatedAt = time.Now()

	return nil
}

// UpdateStatus moves the order to the target status when the transition
// table allows it. Reaching delivered marks the payment as collected,
// which holds for COD and is already true for paid gateway orders.
func (o *Order) UpdateStatus(target OrderStatus) error {
	if err := o.Status.ValidateTransition(target); err != nil {
		return err
	}

	now := time.Now()
	previous := o.Status
	o.Status = target
	o.UpdatedAt = now

	if previous == target {
		return nil
	}

	switch target {
	case OrderStatusProcessing:
		o.ProcessedAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
		o.PaymentStatus = PaymentStatusPaid
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}

	return nil
}

// CanCancel reports whether the customer-facing cancel action is available.
// Stricter than the transition table: shipped orders can still be cancelled
// server-side as a refused-delivery return, but the action itself is only
// offered while pending or processing.
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// Cancel cancels the order through the customer cancel action
func (o *Order) Cancel(reason string) error {
	if !o.CanCancel() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	if err := o.UpdateStatus(OrderStatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason

	return nil
}

// CanChangePaymentStatus reports whether an admin may edit the payment status.
// False when the payment provider owns the status (digital gateways), when the
// order is cancelled, or when a COD order has already been delivered.
func (o *Order) CanChangePaymentStatus() bool {
	if o.PaymentMethod.IsDigitalGateway() {
		return false
	}
	if o.Status == OrderStatusCancelled {
		return false
	}
	if o.PaymentMethod == PaymentMethodCOD && o.Status == OrderStatusDelivered {
		return false
	}
	return true
}

// UpdatePaymentStatus sets the payment status after checking mutability
func (o *Order) UpdatePaymentStatus(target PaymentStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_STATUS", fmt.Sprintf("Unknown payment status %q", target))
	}
	if !o.CanChangePaymentStatus() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Payment status of a %s order paid via %s cannot be changed", o.Status, o.PaymentMethod))
	}

	o.PaymentStatus = target
	o.UpdatedAt = time.Now()

	return nil
}

// IsTerminal returns true once the order is delivered or cancelled
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

func (o *Order) recalculateTotals() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
	o.PayableAmount = o.TotalAmount.Sub(o.DiscountAmount)

	if o.PayableAmount.IsNegative() {
		o.DiscountAmount = o.TotalAmount
		o.PayableAmount = decimal.Zero
	}
}
