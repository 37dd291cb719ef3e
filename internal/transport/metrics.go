package transport

import (
	"context"
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

// MetricsServer exposes the /metrics scrape endpoint on its own port,
// a separate listener rather than sharing the port with the three
// peer-protocol routes.
type MetricsServer struct {
	echo *echo.Echo
}

func NewMetricsServer() *MetricsServer {
	e := echo.New()
	e.HideBanner = true
	e.GET("/metrics", echoprometheus.NewHandler())
	return &MetricsServer{echo: e}
}

func (m *MetricsServer) Start(port int) error {
	return m.echo.Start(fmt.Sprintf(":%d", port))
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.echo.Shutdown(ctx)
}
