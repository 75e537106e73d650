package models

import "github.com/dmitrijs2005/sitecrew/internal/geo"

type WorkOrder struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Project is a job site with its registered coordinates.
type Project struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	WorkOrders []WorkOrder `json:"workOrders,omitempty"`
}

func (p Project) Point() geo.Point {
	return geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// WorkOrder looks up one of the project's work orders by id.
func (p Project) WorkOrder(id string) (WorkOrder, bool) {
	for _, wo := range p.WorkOrders {
		if wo.ID == id {
			return wo, true
		}
	}
	return WorkOrder{}, false
}
