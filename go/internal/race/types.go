package race

// AddDriverRequest represents a request to add a driver to the roster
type AddDriverRequest struct {
	Name string `json:"name"`
	Team string `json:"team"`
	Car  string `json:"car"`
}

// DeleteDriverRequest represents a confirmed request to remove one driver
type DeleteDriverRequest struct {
	ID        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

// ResetTimerRequest represents a confirmed request to zero the timer
type ResetTimerRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ClearDriversRequest represents a confirmed request to empty the roster
type ClearDriversRequest struct {
	Confirmed bool `json:"confirmed"`
}
