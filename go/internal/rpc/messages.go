package rpc

import "github.com/mcdev12/racedash/go/internal/models"

// Timer is the wire form of the timer record plus its formatted display.
type Timer struct {
	Running   bool   `json:"running"`
	StartTime int64  `json:"startTime"`
	Elapsed   int64  `json:"elapsed"`
	Display   string `json:"display"`
}

// Driver is the wire form of one roster entry.
type Driver struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	Car       string `json:"car"`
	CreatedAt int64  `json:"createdAt"`
}

type StartTimerRequest struct{}

type StartTimerResponse struct {
	Timer *Timer `json:"timer"`
}

type StopTimerRequest struct{}

type StopTimerResponse struct {
	Timer *Timer `json:"timer"`
}

type ResetTimerRequest struct {
	Confirmed bool `json:"confirmed"`
}

type ResetTimerResponse struct {
	Timer *Timer `json:"timer"`
}

type GetTimerRequest struct{}

type GetTimerResponse struct {
	Timer *Timer `json:"timer"`
}

type AddDriverRequest struct {
	Name string `json:"name"`
	Team string `json:"team"`
	Car  string `json:"car"`
}

type AddDriverResponse struct {
	Driver *Driver `json:"driver"`
}

type DeleteDriverRequest struct {
	Id        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

type DeleteDriverResponse struct{}

type ClearDriversRequest struct {
	Confirmed bool `json:"confirmed"`
}

type ClearDriversResponse struct{}

type ListDriversRequest struct{}

// ListDriversResponse carries the roster ordered by id.
type ListDriversResponse struct {
	Drivers []*Driver `json:"drivers"`
}

type ExportDriversRequest struct{}

// ExportDriversResponse carries the raw id -> record mapping.
type ExportDriversResponse struct {
	Drivers models.Drivers `json:"drivers"`
}
