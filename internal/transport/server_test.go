package transport

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/wire"
)

type fakeHandlers struct {
	outputCalled  *wire.MessageEnvelope
	pingErr       error
	pingResp      wire.PingResponse
	messageCalled *wire.MessageRequest
}

func (f *fakeHandlers) HandleOutput(ctx context.Context, env wire.MessageEnvelope) error {
	f.outputCalled = &env
	return nil
}

func (f *fakeHandlers) HandlePing(ctx context.Context, req wire.PingRequest) (wire.PingResponse, error) {
	if f.pingErr != nil {
		return wire.PingResponse{}, f.pingErr
	}
	return f.pingResp, nil
}

func (f *fakeHandlers) HandleMessage(ctx context.Context, req wire.MessageRequest) error {
	f.messageCalled = &req
	return nil
}

func newTestServer(t *testing.T, h Handlers) *Server {
	t.Helper()
	s := NewServer(h)
	return s
}

func TestOutputHandlerAcceptsValidEnvelope(t *testing.T) {
	assert := assert.New(t)
	fake := &fakeHandlers{}
	s := newTestServer(t, fake)

	env := wire.NewEnvelope("alice", "bob", "text", false, []byte("hi"))
	body, err := wire.EncodeCBOR(env)
	assert.Nil(err)

	req := httptest.NewRequest(http.MethodPost, "/output", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/cbor")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.NotNil(fake.outputCalled)
	assert.Equal("alice", fake.outputCalled.FromUID)
}

func TestOutputHandlerRejectsGarbageBody(t *testing.T) {
	assert := assert.New(t)
	fake := &fakeHandlers{}
	s := newTestServer(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/output", bytes.NewReader([]byte{0xff, 0xff, 0xff}))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestPingHandlerReturnsEncodedResponseOnSuccess(t *testing.T) {
	assert := assert.New(t)
	fake := &fakeHandlers{pingResp: wire.PingResponse{UID: "bob", Status: wire.PingStatusOK}}
	s := newTestServer(t, fake)

	body, err := wire.EncodeCBOR(wire.PingRequest{ContactToken: "token"})
	assert.Nil(err)

	req := httptest.NewRequest(http.MethodPost, "/ping", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)

	var resp wire.PingResponse
	assert.Nil(wire.DecodeCBOR(rec.Body.Bytes(), &resp))
	assert.Equal("bob", resp.UID)
}

func TestPingHandlerReturns400OnValidationFailure(t *testing.T) {
	assert := assert.New(t)
	fake := &fakeHandlers{pingErr: errors.New("expired")}
	s := newTestServer(t, fake)

	body, err := wire.EncodeCBOR(wire.PingRequest{ContactToken: "token"})
	assert.Nil(err)

	req := httptest.NewRequest(http.MethodPost, "/ping", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestMessageHandlerAcceptsRequest(t *testing.T) {
	assert := assert.New(t)
	fake := &fakeHandlers{}
	s := newTestServer(t, fake)

	body, err := wire.EncodeCBOR(wire.MessageRequest{FromUID: "alice", MessageType: "text", Payload: []byte("hi")})
	assert.Nil(err)

	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.NotNil(fake.messageCalled)
	assert.Equal("alice", fake.messageCalled.FromUID)
}
