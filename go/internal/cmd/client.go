package main

import (
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/timer"
)

func newRaceClient() *rpc.RaceServiceClient {
	server, token := remoteTarget()
	return rpc.NewRaceServiceClient(
		&http.Client{Timeout: 10 * time.Second},
		server,
		connect.WithInterceptors(rpc.BearerToken(token)),
	)
}

// describeTimer renders t as "HH:MM:SS (Status)".
func describeTimer(t *rpc.Timer) string {
	if t == nil {
		return fmt.Sprintf("%s (%s)", timer.FormatElapsed(0), timer.StatusStopped)
	}
	status := timer.StatusStopped
	if t.Running {
		status = timer.StatusRunning
	}
	return fmt.Sprintf("%s (%s)", t.Display, status)
}

func driversFromRPC(list []*rpc.Driver) models.Drivers {
	drivers := make(models.Drivers, len(list))
	for _, d := range list {
		drivers[d.Id] = models.DriverRecord{
			Name:      d.Name,
			Team:      d.Team,
			Car:       d.Car,
			CreatedAt: d.CreatedAt,
		}
	}
	return drivers
}
