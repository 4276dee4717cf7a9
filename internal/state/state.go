package state

import "field-dispatch-service/internal/domain"

// AppState is the whole persisted application state, stored as one JSON
// blob. Backends never see inside it; defaulting and migration live here.
type AppState struct {
	WorkOrders     []domain.WorkOrder     `json:"work_orders"`
	WorkOrderTypes []domain.WorkOrderType `json:"work_order_types"`
	Trips          []domain.Trip          `json:"trips"`
	Settings       domain.TripSettings    `json:"trip_settings"`
	Goals          domain.FinancialGoals  `json:"financial_goals"`
}

// Defaults is the state of a fresh install. Loading unmarshals a stored
// blob over this value, so any top-level field absent from the blob keeps
// its default (shallow forward-compatible merge).
func Defaults() AppState {
	return AppState{
		WorkOrders:     []domain.WorkOrder{},
		WorkOrderTypes: []domain.WorkOrderType{},
		Trips:          []domain.Trip{},
		Settings:       domain.DefaultTripSettings(),
		Goals:          domain.DefaultFinancialGoals(),
	}
}

// normalize repairs fields a stored blob may have nulled out. Only
// top-level fields are defaulted; nested shapes are taken as stored.
func (s *AppState) normalize() {
	if s.WorkOrders == nil {
		s.WorkOrders = []domain.WorkOrder{}
	}
	if s.WorkOrderTypes == nil {
		s.WorkOrderTypes = []domain.WorkOrderType{}
	}
	if s.Trips == nil {
		s.Trips = []domain.Trip{}
	}
	if s.Settings.MaxTripSeconds == 0 && len(s.Settings.Priorities) == 0 {
		s.Settings = domain.DefaultTripSettings()
	}
	if s.Goals == (domain.FinancialGoals{}) {
		s.Goals = domain.DefaultFinancialGoals()
	}
}
