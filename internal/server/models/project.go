package models

// Project is a job site workers are assigned to.
type Project struct {
	ID         string
	Name       string
	Latitude   float64
	Longitude  float64
	WorkOrders []WorkOrder
}

type WorkOrder struct {
	ID          string
	ProjectID   string
	Description string
}
