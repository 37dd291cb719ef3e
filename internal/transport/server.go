package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"pure2p/internal/wire"
)

// Handlers is the messaging orchestrator's inbound contract. The
// server never touches storage itself; it decodes, delegates, and
// encodes the reply.
type Handlers interface {
	HandleOutput(ctx context.Context, env wire.MessageEnvelope) error
	HandlePing(ctx context.Context, req wire.PingRequest) (wire.PingResponse, error)
	HandleMessage(ctx context.Context, req wire.MessageRequest) error
}

// Server is the HTTP/1.1 listener: three POST endpoints, CBOR bodies,
// no retry or backoff logic of its own.
type Server struct {
	echo *echo.Echo
}

// The Prometheus middleware registers its collectors on the default
// registry, which refuses a second registration, so it is built once
// and shared by every Server in the process.
var (
	metricsOnce       sync.Once
	metricsMiddleware echo.MiddlewareFunc
)

func NewServer(h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return cuid2.Generate() },
	}))
	metricsOnce.Do(func() { metricsMiddleware = echoprometheus.NewMiddleware("pure2p") })
	e.Use(metricsMiddleware)
	e.Use(middleware.Recover())
	e.Logger.SetLevel(log.INFO)

	e.POST("/output", outputHandler(h))
	e.POST("/ping", pingHandler(h))
	e.POST("/message", messageHandler(h))

	return &Server{echo: e}
}

func (s *Server) Start(port int) error {
	return s.echo.Start(fmt.Sprintf(":%d", port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// readCBOR reads and decodes a request body. On failure it writes a 400
// directly and returns a non-nil error so the caller stops without
// invoking its handler. Crypto and codec failures on inbound data
// surface to the handler as 400 responses and are logged at debug.
func readCBOR(c echo.Context, v interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	defer c.Request().Body.Close()
	if err != nil {
		log.Debugf("reading request body: %v", err)
		c.NoContent(http.StatusBadRequest)
		return echo.ErrBadRequest
	}
	if err := wire.DecodeCBOR(body, v); err != nil {
		log.Debugf("decoding request body: %v", err)
		c.NoContent(http.StatusBadRequest)
		return echo.ErrBadRequest
	}
	return nil
}

func outputHandler(h Handlers) echo.HandlerFunc {
	return func(c echo.Context) error {
		var env wire.MessageEnvelope
		if err := readCBOR(c, &env); err != nil {
			return err
		}
		if err := h.HandleOutput(c.Request().Context(), env); err != nil {
			log.Errorf("handling /output: %v", err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func pingHandler(h Handlers) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req wire.PingRequest
		if err := readCBOR(c, &req); err != nil {
			return err
		}
		resp, err := h.HandlePing(c.Request().Context(), req)
		if err != nil {
			log.Debugf("handling /ping: %v", err)
			return c.NoContent(http.StatusBadRequest)
		}
		body, err := wire.EncodeCBOR(resp)
		if err != nil {
			log.Errorf("encoding /ping response: %v", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.Blob(http.StatusOK, "application/cbor", body)
	}
}

func messageHandler(h Handlers) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req wire.MessageRequest
		if err := readCBOR(c, &req); err != nil {
			return err
		}
		if err := h.HandleMessage(c.Request().Context(), req); err != nil {
			log.Errorf("handling /message: %v", err)
		}
		return c.NoContent(http.StatusOK)
	}
}
