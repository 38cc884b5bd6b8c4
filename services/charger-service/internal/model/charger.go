package model

import "time"

// Charger is a host-listed charging point. Availability keeps the persisted
// store shape (day name -> "HH:MM-HH:MM" strings) and is parsed into a
// schedule only at the edges that need to evaluate or mutate it.
type Charger struct {
	ID            string
	HostID        string
	Title         string
	Description   string
	Address       string
	Latitude      float64
	Longitude     float64
	ConnectorType string
	PowerKW       float64
	PricePerHour  float64
	Photos        []string
	AutoAccept    bool
	IsActive      bool
	Timezone      string
	Availability  map[string][]string
	Rating        float64
	TotalReviews  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
