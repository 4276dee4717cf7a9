package dto

import "time"

type WorkOrderResponse struct {
	ID                string     `json:"id"`
	OrderNumber       string     `json:"order_number"`
	DueDate           time.Time  `json:"due_date"`
	StartNotBefore    *time.Time `json:"start_not_before,omitempty"`
	ClientName        string     `json:"client_name"`
	TypeName          string     `json:"type_name"`
	CompanyName       string     `json:"company_name"`
	BaseRate          float64    `json:"base_rate"`
	MiscFee           float64    `json:"misc_fee"`
	RequiredResources []string   `json:"required_resources,omitempty"`
	FollowUp          bool       `json:"follow_up"`
	Status            string     `json:"status"`
	Address           string     `json:"address"`
	Description       string     `json:"description,omitempty"`
	CompletionDate    *time.Time `json:"completion_date,omitempty"`
	InvoiceDate       *time.Time `json:"invoice_date,omitempty"`
}

type ListWorkOrdersResponse struct {
	WorkOrders []WorkOrderResponse `json:"work_orders"`
}

// CreateWorkOrderRequest carries a manually entered work order. BaseRate is
// a pointer so an absent rate falls back to the type default while an
// explicit zero survives.
type CreateWorkOrderRequest struct {
	OrderNumber       string     `json:"order_number"`
	DueDate           time.Time  `json:"due_date"`
	StartNotBefore    *time.Time `json:"start_not_before"`
	ClientName        string     `json:"client_name"`
	TypeName          string     `json:"type_name"`
	CompanyName       string     `json:"company_name"`
	BaseRate          *float64   `json:"base_rate"`
	MiscFee           float64    `json:"misc_fee"`
	RequiredResources []string   `json:"required_resources"`
	FollowUp          bool       `json:"follow_up"`
	Address           string     `json:"address"`
	Description       string     `json:"description"`
}
