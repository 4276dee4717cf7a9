package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"field-dispatch-service/internal/api/dto"
	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/services"
	"field-dispatch-service/internal/state"
)

// PlanHandler runs one planning round. It gathers the order pool and the
// stored constraints, asks the planner for suggestions, and returns them
// without persisting anything; suggestions only become trips via an editor
// session approval.
type PlanHandler struct {
	Store   *state.Store
	Planner *services.Planner
}

func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := strings.TrimSpace(req.StartLocation)
	end := strings.TrimSpace(req.EndLocation)
	if start == "" || end == "" {
		writeError(w, r, http.StatusBadRequest, "start_location and end_location are required")
		return
	}
	if req.MaxTrips < 0 || req.MaxTrips > 10 {
		writeError(w, r, http.StatusBadRequest, "max_trips must be between 0 and 10")
		return
	}

	var orders []domain.WorkOrder
	if len(req.WorkOrderIDs) == 0 {
		orders = h.Store.UnassignedWorkOrders()
	} else {
		seen := make(map[string]bool, len(req.WorkOrderIDs))
		orders = make([]domain.WorkOrder, 0, len(req.WorkOrderIDs))
		for _, id := range req.WorkOrderIDs {
			if seen[id] {
				continue
			}
			seen[id] = true

			o, ok := h.Store.WorkOrder(id)
			if !ok {
				writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown work order %q", id))
				return
			}
			if !o.Plannable() {
				writeError(w, r, http.StatusConflict, fmt.Sprintf("work order %q is not plannable (status %s)", id, o.Status))
				return
			}
			orders = append(orders, o)
		}
	}
	if len(orders) == 0 {
		writeError(w, r, http.StatusBadRequest, "no plannable work orders")
		return
	}

	result, err := h.Planner.Plan(r.Context(), services.PlanRequest{
		Orders:        orders,
		Types:         h.Store.WorkOrderTypes(),
		StartLocation: start,
		EndLocation:   end,
		Settings:      h.Store.Settings(),
		Goals:         h.Store.Goals(),
		MaxTrips:      req.MaxTrips,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.PlanResponse{
		Suggestions: make([]dto.Suggestion, 0, len(result.Suggestions)),
		Explanation: result.Explanation,
	}
	for _, sg := range result.Suggestions {
		res.Suggestions = append(res.Suggestions, suggestionDTO(sg))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func suggestionDTO(sg domain.SuggestedTrip) dto.Suggestion {
	out := dto.Suggestion{
		ID:               sg.ID,
		Name:             sg.Name,
		Stops:            make([]dto.SuggestionStop, 0, len(sg.Stops)),
		TotalMinutes:     sg.TotalMinutes,
		TravelMinutes:    sg.TravelMinutes,
		ServiceMinutes:   sg.ServiceMinutes,
		TotalMiles:       sg.TotalMiles,
		EstimatedPayout:  sg.EstimatedPayout,
		Reasoning:        sg.Reasoning,
		Color:            sg.Color,
		ViolationWarning: sg.ViolationWarning,
		StartLocation:    sg.StartLocation,
		EndLocation:      sg.EndLocation,
		ActualMinutes:    sg.ActualMinutes,
		ActualMiles:      sg.ActualMiles,
	}
	for _, st := range sg.Stops {
		out.Stops = append(out.Stops, dto.SuggestionStop{
			WorkOrderID:        st.WorkOrderID,
			Address:            st.Address,
			ServiceTimeMinutes: st.ServiceTimeMinutes,
		})
	}
	return out
}
