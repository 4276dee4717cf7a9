package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"field-dispatch-service/internal/api/dto"
	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/state"
)

// WorkOrderHandler exposes the order pool: board listing, manual entry, and
// single-order retrieval.
type WorkOrderHandler struct {
	Store *state.Store
}

func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var orders []domain.WorkOrder
	if q.Get("unassigned") == "true" {
		orders = h.Store.UnassignedWorkOrders()
	} else {
		status := domain.WorkOrderStatus(q.Get("status"))
		if status != "" && !validOrderStatus(status) {
			writeError(w, r, http.StatusBadRequest, "unknown status filter")
			return
		}
		orders = h.Store.WorkOrders(status)
	}

	res := dto.ListWorkOrdersResponse{
		WorkOrders: make([]dto.WorkOrderResponse, 0, len(orders)),
	}
	for _, o := range orders {
		res.WorkOrders = append(res.WorkOrders, workOrderDTO(o))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Store.WorkOrder(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "work order not found")
		return
	}
	writeJSON(w, r, http.StatusOK, workOrderDTO(o))
}

// Create records a manually entered work order. Follow-up orders enter as
// PendingReview, everything else as Pending; billing blanks are filled from
// the order's type template.
func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWorkOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.OrderNumber) == "" {
		writeError(w, r, http.StatusBadRequest, "order_number is required")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, r, http.StatusBadRequest, "address is required")
		return
	}
	if strings.TrimSpace(req.TypeName) == "" {
		writeError(w, r, http.StatusBadRequest, "type_name is required")
		return
	}
	if req.DueDate.IsZero() {
		writeError(w, r, http.StatusBadRequest, "due_date is required")
		return
	}

	o := domain.WorkOrder{
		ID:                uuid.NewString(),
		OrderNumber:       strings.TrimSpace(req.OrderNumber),
		DueDate:           req.DueDate,
		StartNotBefore:    req.StartNotBefore,
		ClientName:        req.ClientName,
		TypeName:          strings.TrimSpace(req.TypeName),
		CompanyName:       req.CompanyName,
		MiscFee:           req.MiscFee,
		RequiredResources: req.RequiredResources,
		FollowUp:          req.FollowUp,
		Status:            domain.OrderPending,
		Address:           strings.TrimSpace(req.Address),
		Description:       req.Description,
	}
	if req.FollowUp {
		o.Status = domain.OrderPendingReview
	}
	if req.BaseRate != nil {
		o.BaseRate = *req.BaseRate
	}

	if tp, ok := h.Store.WorkOrderType(o.TypeName); ok {
		o.TypeName = tp.Name
		if o.CompanyName == "" {
			o.CompanyName = tp.DefaultCompany
		}
		if req.BaseRate == nil {
			o.BaseRate = tp.DefaultBaseRate
		}
		if len(o.RequiredResources) == 0 {
			o.RequiredResources = append([]string(nil), tp.DefaultResources...)
		}
	}

	if err := h.Store.PutWorkOrder(r.Context(), o); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, workOrderDTO(o))
}

func validOrderStatus(s domain.WorkOrderStatus) bool {
	switch s {
	case domain.OrderPendingReview, domain.OrderPending, domain.OrderActive,
		domain.OrderCompleted, domain.OrderInvoiced, domain.OrderPaid:
		return true
	}
	return false
}

func workOrderDTO(o domain.WorkOrder) dto.WorkOrderResponse {
	return dto.WorkOrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		DueDate:           o.DueDate,
		StartNotBefore:    o.StartNotBefore,
		ClientName:        o.ClientName,
		TypeName:          o.TypeName,
		CompanyName:       o.CompanyName,
		BaseRate:          o.BaseRate,
		MiscFee:           o.MiscFee,
		RequiredResources: o.RequiredResources,
		FollowUp:          o.FollowUp,
		Status:            string(o.Status),
		Address:           o.Address,
		Description:       o.Description,
		CompletionDate:    o.CompletionDate,
		InvoiceDate:       o.InvoiceDate,
	}
}
