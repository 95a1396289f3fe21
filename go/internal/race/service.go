package race

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/store"
	"github.com/mcdev12/racedash/go/internal/timer"
)

// RaceApp defines what the service layer needs from the race application
type RaceApp interface {
	Now() time.Time
	StartTimer(ctx context.Context) (*models.TimerRecord, error)
	StopTimer(ctx context.Context) (*models.TimerRecord, error)
	ResetTimer(ctx context.Context, req ResetTimerRequest) (*models.TimerRecord, error)
	GetTimer(ctx context.Context) (*models.TimerRecord, error)
	AddDriver(ctx context.Context, req AddDriverRequest) (string, *models.DriverRecord, error)
	DeleteDriver(ctx context.Context, req DeleteDriverRequest) error
	ClearDrivers(ctx context.Context, req ClearDriversRequest) error
	ListDrivers(ctx context.Context) (models.Drivers, error)
	ExportDrivers(ctx context.Context) (models.Drivers, error)
}

// Service implements the RaceService connect interface
type Service struct {
	app RaceApp
}

// NewService creates a new race connect service
func NewService(app RaceApp) *Service {
	return &Service{
		app: app,
	}
}

// Verify that Service implements the RaceServiceHandler interface
var _ rpc.RaceServiceHandler = (*Service)(nil)

func (s *Service) StartTimer(ctx context.Context, req *connect.Request[rpc.StartTimerRequest]) (*connect.Response[rpc.StartTimerResponse], error) {
	rec, err := s.app.StartTimer(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.StartTimerResponse{Timer: s.timerToRPC(rec)}), nil
}

func (s *Service) StopTimer(ctx context.Context, req *connect.Request[rpc.StopTimerRequest]) (*connect.Response[rpc.StopTimerResponse], error) {
	rec, err := s.app.StopTimer(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.StopTimerResponse{Timer: s.timerToRPC(rec)}), nil
}

func (s *Service) ResetTimer(ctx context.Context, req *connect.Request[rpc.ResetTimerRequest]) (*connect.Response[rpc.ResetTimerResponse], error) {
	rec, err := s.app.ResetTimer(ctx, ResetTimerRequest{Confirmed: req.Msg.Confirmed})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.ResetTimerResponse{Timer: s.timerToRPC(rec)}), nil
}

func (s *Service) GetTimer(ctx context.Context, req *connect.Request[rpc.GetTimerRequest]) (*connect.Response[rpc.GetTimerResponse], error) {
	rec, err := s.app.GetTimer(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.GetTimerResponse{Timer: s.timerToRPC(rec)}), nil
}

func (s *Service) AddDriver(ctx context.Context, req *connect.Request[rpc.AddDriverRequest]) (*connect.Response[rpc.AddDriverResponse], error) {
	id, rec, err := s.app.AddDriver(ctx, AddDriverRequest{
		Name: req.Msg.Name,
		Team: req.Msg.Team,
		Car:  req.Msg.Car,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.AddDriverResponse{Driver: driverToRPC(id, *rec)}), nil
}

func (s *Service) DeleteDriver(ctx context.Context, req *connect.Request[rpc.DeleteDriverRequest]) (*connect.Response[rpc.DeleteDriverResponse], error) {
	err := s.app.DeleteDriver(ctx, DeleteDriverRequest{ID: req.Msg.Id, Confirmed: req.Msg.Confirmed})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.DeleteDriverResponse{}), nil
}

func (s *Service) ClearDrivers(ctx context.Context, req *connect.Request[rpc.ClearDriversRequest]) (*connect.Response[rpc.ClearDriversResponse], error) {
	if err := s.app.ClearDrivers(ctx, ClearDriversRequest{Confirmed: req.Msg.Confirmed}); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.ClearDriversResponse{}), nil
}

// ListDrivers returns the roster in display order
func (s *Service) ListDrivers(ctx context.Context, req *connect.Request[rpc.ListDriversRequest]) (*connect.Response[rpc.ListDriversResponse], error) {
	drivers, err := s.app.ListDrivers(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	rows := roster.Project(drivers)
	out := make([]*rpc.Driver, 0, len(rows))
	for _, row := range rows {
		out = append(out, driverToRPC(row.ID, drivers[row.ID]))
	}
	return connect.NewResponse(&rpc.ListDriversResponse{Drivers: out}), nil
}

// ExportDrivers returns the raw roster mapping
func (s *Service) ExportDrivers(ctx context.Context, req *connect.Request[rpc.ExportDriversRequest]) (*connect.Response[rpc.ExportDriversResponse], error) {
	drivers, err := s.app.ExportDrivers(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.ExportDriversResponse{Drivers: drivers}), nil
}

func (s *Service) timerToRPC(rec *models.TimerRecord) *rpc.Timer {
	if rec == nil {
		rec = &models.TimerRecord{}
	}
	return &rpc.Timer{
		Running:   rec.Running,
		StartTime: rec.StartTime,
		Elapsed:   rec.Elapsed,
		Display:   timer.FormatElapsed(timer.Displayed(rec, s.app.Now())),
	}
}

func driverToRPC(id string, rec models.DriverRecord) *rpc.Driver {
	return &rpc.Driver{
		Id:        id,
		Name:      rec.Name,
		Team:      rec.Team,
		Car:       rec.Car,
		CreatedAt: rec.CreatedAt,
	}
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrDriverNameRequired),
		errors.Is(err, ErrDriverIDRequired),
		errors.Is(err, store.ErrInvalidPath):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrNotConfirmed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, store.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
