package models

const (
	OrderStatusCreated     = "created"
	OrderStatusApproved    = "approved"
	OrderStatusInvoiced    = "invoiced"
	OrderStatusProcessing  = "processing"
	OrderStatusShipped     = "shipped"
	OrderStatusDelivered   = "delivered"
	OrderStatusCanceled    = "canceled"
	OrderStatusUnavailable = "unavailable"

	PaymentCreditCard = "credit_card"
	PaymentBoleto     = "boleto"
	PaymentVoucher    = "voucher"
	PaymentDebitCard  = "debit_card"
)
