package models

// DriverRecord is one entry of the roster, keyed by a store generated id.
type DriverRecord struct {
	Name      string `json:"name"`
	Team      string `json:"team"`
	Car       string `json:"car"`
	CreatedAt int64  `json:"createdAt"`
}

// Drivers maps store ids to driver records. No order is persisted.
type Drivers map[string]DriverRecord

// IDs returns the driver ids in no particular order.
func (d Drivers) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	return ids
}
