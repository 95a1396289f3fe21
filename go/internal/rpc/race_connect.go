package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// RaceServiceName is the fully-qualified name of the RaceService service.
const RaceServiceName = "racedash.v1.RaceService"

// Procedure paths of RaceService.
const (
	RaceServiceStartTimerProcedure    = "/racedash.v1.RaceService/StartTimer"
	RaceServiceStopTimerProcedure     = "/racedash.v1.RaceService/StopTimer"
	RaceServiceResetTimerProcedure    = "/racedash.v1.RaceService/ResetTimer"
	RaceServiceGetTimerProcedure      = "/racedash.v1.RaceService/GetTimer"
	RaceServiceAddDriverProcedure     = "/racedash.v1.RaceService/AddDriver"
	RaceServiceDeleteDriverProcedure  = "/racedash.v1.RaceService/DeleteDriver"
	RaceServiceClearDriversProcedure  = "/racedash.v1.RaceService/ClearDrivers"
	RaceServiceListDriversProcedure   = "/racedash.v1.RaceService/ListDrivers"
	RaceServiceExportDriversProcedure = "/racedash.v1.RaceService/ExportDrivers"
)

var adminProcedures = map[string]bool{
	RaceServiceStartTimerProcedure:    true,
	RaceServiceStopTimerProcedure:     true,
	RaceServiceResetTimerProcedure:    true,
	RaceServiceAddDriverProcedure:     true,
	RaceServiceDeleteDriverProcedure:  true,
	RaceServiceClearDriversProcedure:  true,
	RaceServiceExportDriversProcedure: true,
}

// RequiresAdmin reports whether procedure is restricted to admins.
func RequiresAdmin(procedure string) bool {
	return adminProcedures[procedure]
}

// RaceServiceHandler is implemented by the race service.
type RaceServiceHandler interface {
	StartTimer(context.Context, *connect.Request[StartTimerRequest]) (*connect.Response[StartTimerResponse], error)
	StopTimer(context.Context, *connect.Request[StopTimerRequest]) (*connect.Response[StopTimerResponse], error)
	ResetTimer(context.Context, *connect.Request[ResetTimerRequest]) (*connect.Response[ResetTimerResponse], error)
	GetTimer(context.Context, *connect.Request[GetTimerRequest]) (*connect.Response[GetTimerResponse], error)
	AddDriver(context.Context, *connect.Request[AddDriverRequest]) (*connect.Response[AddDriverResponse], error)
	DeleteDriver(context.Context, *connect.Request[DeleteDriverRequest]) (*connect.Response[DeleteDriverResponse], error)
	ClearDrivers(context.Context, *connect.Request[ClearDriversRequest]) (*connect.Response[ClearDriversResponse], error)
	ListDrivers(context.Context, *connect.Request[ListDriversRequest]) (*connect.Response[ListDriversResponse], error)
	ExportDrivers(context.Context, *connect.Request[ExportDriversRequest]) (*connect.Response[ExportDriversResponse], error)
}

// NewRaceServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on. The JSON codec is always installed.
func NewRaceServiceHandler(svc RaceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	routes := map[string]http.Handler{
		RaceServiceStartTimerProcedure:    connect.NewUnaryHandler(RaceServiceStartTimerProcedure, svc.StartTimer, opts...),
		RaceServiceStopTimerProcedure:     connect.NewUnaryHandler(RaceServiceStopTimerProcedure, svc.StopTimer, opts...),
		RaceServiceResetTimerProcedure:    connect.NewUnaryHandler(RaceServiceResetTimerProcedure, svc.ResetTimer, opts...),
		RaceServiceGetTimerProcedure:      connect.NewUnaryHandler(RaceServiceGetTimerProcedure, svc.GetTimer, opts...),
		RaceServiceAddDriverProcedure:     connect.NewUnaryHandler(RaceServiceAddDriverProcedure, svc.AddDriver, opts...),
		RaceServiceDeleteDriverProcedure:  connect.NewUnaryHandler(RaceServiceDeleteDriverProcedure, svc.DeleteDriver, opts...),
		RaceServiceClearDriversProcedure:  connect.NewUnaryHandler(RaceServiceClearDriversProcedure, svc.ClearDrivers, opts...),
		RaceServiceListDriversProcedure:   connect.NewUnaryHandler(RaceServiceListDriversProcedure, svc.ListDrivers, opts...),
		RaceServiceExportDriversProcedure: connect.NewUnaryHandler(RaceServiceExportDriversProcedure, svc.ExportDrivers, opts...),
	}

	return "/" + RaceServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// RaceServiceClient calls RaceService over the connect protocol.
type RaceServiceClient struct {
	startTimer    *connect.Client[StartTimerRequest, StartTimerResponse]
	stopTimer     *connect.Client[StopTimerRequest, StopTimerResponse]
	resetTimer    *connect.Client[ResetTimerRequest, ResetTimerResponse]
	getTimer      *connect.Client[GetTimerRequest, GetTimerResponse]
	addDriver     *connect.Client[AddDriverRequest, AddDriverResponse]
	deleteDriver  *connect.Client[DeleteDriverRequest, DeleteDriverResponse]
	clearDrivers  *connect.Client[ClearDriversRequest, ClearDriversResponse]
	listDrivers   *connect.Client[ListDriversRequest, ListDriversResponse]
	exportDrivers *connect.Client[ExportDriversRequest, ExportDriversResponse]
}

// NewRaceServiceClient creates a client for the service at baseURL.
func NewRaceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RaceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &RaceServiceClient{
		startTimer:    connect.NewClient[StartTimerRequest, StartTimerResponse](httpClient, baseURL+RaceServiceStartTimerProcedure, opts...),
		stopTimer:     connect.NewClient[StopTimerRequest, StopTimerResponse](httpClient, baseURL+RaceServiceStopTimerProcedure, opts...),
		resetTimer:    connect.NewClient[ResetTimerRequest, ResetTimerResponse](httpClient, baseURL+RaceServiceResetTimerProcedure, opts...),
		getTimer:      connect.NewClient[GetTimerRequest, GetTimerResponse](httpClient, baseURL+RaceServiceGetTimerProcedure, opts...),
		addDriver:     connect.NewClient[AddDriverRequest, AddDriverResponse](httpClient, baseURL+RaceServiceAddDriverProcedure, opts...),
		deleteDriver:  connect.NewClient[DeleteDriverRequest, DeleteDriverResponse](httpClient, baseURL+RaceServiceDeleteDriverProcedure, opts...),
		clearDrivers:  connect.NewClient[ClearDriversRequest, ClearDriversResponse](httpClient, baseURL+RaceServiceClearDriversProcedure, opts...),
		listDrivers:   connect.NewClient[ListDriversRequest, ListDriversResponse](httpClient, baseURL+RaceServiceListDriversProcedure, opts...),
		exportDrivers: connect.NewClient[ExportDriversRequest, ExportDriversResponse](httpClient, baseURL+RaceServiceExportDriversProcedure, opts...),
	}
}

func (c *RaceServiceClient) StartTimer(ctx context.Context, req *connect.Request[StartTimerRequest]) (*connect.Response[StartTimerResponse], error) {
	return c.startTimer.CallUnary(ctx, req)
}

func (c *RaceServiceClient) StopTimer(ctx context.Context, req *connect.Request[StopTimerRequest]) (*connect.Response[StopTimerResponse], error) {
	return c.stopTimer.CallUnary(ctx, req)
}

func (c *RaceServiceClient) ResetTimer(ctx context.Context, req *connect.Request[ResetTimerRequest]) (*connect.Response[ResetTimerResponse], error) {
	return c.resetTimer.CallUnary(ctx, req)
}

func (c *RaceServiceClient) GetTimer(ctx context.Context, req *connect.Request[GetTimerRequest]) (*connect.Response[GetTimerResponse], error) {
	return c.getTimer.CallUnary(ctx, req)
}

func (c *RaceServiceClient) AddDriver(ctx context.Context, req *connect.Request[AddDriverRequest]) (*connect.Response[AddDriverResponse], error) {
	return c.addDriver.CallUnary(ctx, req)
}

func (c *RaceServiceClient) DeleteDriver(ctx context.Context, req *connect.Request[DeleteDriverRequest]) (*connect.Response[DeleteDriverResponse], error) {
	return c.deleteDriver.CallUnary(ctx, req)
}

func (c *RaceServiceClient) ClearDrivers(ctx context.Context, req *connect.Request[ClearDriversRequest]) (*connect.Response[ClearDriversResponse], error) {
	return c.clearDrivers.CallUnary(ctx, req)
}

func (c *RaceServiceClient) ListDrivers(ctx context.Context, req *connect.Request[ListDriversRequest]) (*connect.Response[ListDriversResponse], error) {
	return c.listDrivers.CallUnary(ctx, req)
}

func (c *RaceServiceClient) ExportDrivers(ctx context.Context, req *connect.Request[ExportDriversRequest]) (*connect.Response[ExportDriversResponse], error) {
	return c.exportDrivers.CallUnary(ctx, req)
}
