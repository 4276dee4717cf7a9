package domain

import "time"

// Lifecycle status of a work order. Orders enter as PendingReview or
// Pending, move to Active when their trip starts, and to Completed when
// their stop is closed out. Invoiced/Paid are billing states set outside
// the planning flow.
type WorkOrderStatus string

const (
	OrderPendingReview WorkOrderStatus = "PendingReview"
	OrderPending       WorkOrderStatus = "Pending"
	OrderActive        WorkOrderStatus = "Active"
	OrderCompleted     WorkOrderStatus = "Completed"
	OrderInvoiced      WorkOrderStatus = "Invoiced"
	OrderPaid          WorkOrderStatus = "Paid"
)

// WorkOrder is a single billable field-service job. Orders are created by
// manual entry or seeding and are never deleted once a trip references
// them; status transitions and trip assignment are the only mutations.
type WorkOrder struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	DueDate           time.Time       `json:"due_date"`
	StartNotBefore    *time.Time      `json:"start_not_before,omitempty"`
	ClientName        string          `json:"client_name"`
	TypeName          string          `json:"type_name"`
	CompanyName       string          `json:"company_name"`
	BaseRate          float64         `json:"base_rate"`
	MiscFee           float64         `json:"misc_fee"`
	RequiredResources []string        `json:"required_resources,omitempty"`
	FollowUp          bool            `json:"follow_up"`
	Status            WorkOrderStatus `json:"status"`
	Address           string          `json:"address"`
	Description       string          `json:"description,omitempty"`
	CompletionDate    *time.Time      `json:"completion_date,omitempty"`
	InvoiceDate       *time.Time      `json:"invoice_date,omitempty"`
}

// TotalRate is the per-stop payout contribution: base rate plus misc fee.
func (w WorkOrder) TotalRate() float64 { return w.BaseRate + w.MiscFee }

// Plannable reports whether the order can still be placed on a new trip.
func (w WorkOrder) Plannable() bool {
	return w.Status == OrderPending || w.Status == OrderPendingReview
}

// WorkOrderType is a template for new work orders: default billing values,
// default resources, and the service-time estimate used when a stop has no
// recorded time of its own.
type WorkOrderType struct {
	Name               string   `json:"name"`
	DefaultCompany     string   `json:"default_company"`
	DefaultBaseRate    float64  `json:"default_base_rate"`
	DefaultResources   []string `json:"default_resources,omitempty"`
	ServiceTimeSeconds int      `json:"service_time_seconds"`
	UseRollingAverage  bool     `json:"use_rolling_average"`
	Archived           bool     `json:"archived"`
}

// ServiceMinutes converts the type's service-time estimate to minutes.
func (t WorkOrderType) ServiceMinutes() float64 {
	return float64(t.ServiceTimeSeconds) / 60
}
