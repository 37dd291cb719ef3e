package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"pure2p/internal/model"
	"pure2p/internal/wire"
)

const (
	pingTimeout    = 5 * time.Second
	messageTimeout = 15 * time.Second
)

// Client is the outbound half of the peer protocol. It never retries;
// every call returns promptly with a typed Result and retry policy
// lives entirely in the queue subsystem.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{}}
}

// SendEnvelope posts to a peer's legacy /output endpoint.
func (c *Client) SendEnvelope(ctx context.Context, addr string, env wire.MessageEnvelope) Result {
	body, err := wire.EncodeCBOR(env)
	if err != nil {
		return failed(ReasonDecodeError)
	}
	_, result := c.post(ctx, addr, "/output", body, messageTimeout)
	return result
}

// SendPing posts a signed contact token to a peer's /ping endpoint and
// returns both the decoded response (when successful) and the call's
// delivery result.
func (c *Client) SendPing(ctx context.Context, addr, contactToken string) (*wire.PingResponse, Result) {
	body, err := wire.EncodeCBOR(wire.PingRequest{ContactToken: contactToken})
	if err != nil {
		return nil, failed(ReasonDecodeError)
	}
	respBody, result := c.post(ctx, addr, "/ping", body, pingTimeout)
	if result.Outcome != Delivered {
		return nil, result
	}
	var resp wire.PingResponse
	if err := wire.DecodeCBOR(respBody, &resp); err != nil {
		return nil, failed(ReasonDecodeError)
	}
	return &resp, delivered()
}

// SendMessage posts a plain or encrypted payload to a peer's /message
// endpoint.
func (c *Client) SendMessage(ctx context.Context, addr, fromUID string, msgType model.MessageType, payload []byte) Result {
	body, err := wire.EncodeCBOR(wire.MessageRequest{FromUID: fromUID, MessageType: msgType, Payload: payload})
	if err != nil {
		return failed(ReasonDecodeError)
	}
	_, result := c.post(ctx, addr, "/message", body, messageTimeout)
	return result
}

func (c *Client) post(ctx context.Context, addr, path string, body []byte, timeout time.Duration) ([]byte, Result) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+path, bytes.NewReader(body))
	if err != nil {
		return nil, failed(ReasonDecodeError)
	}
	req.Header.Set("Content-Type", "application/cbor")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, retry(ReasonTimeout)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, retry(ReasonTimeout)
		}
		return nil, retry(ReasonConnectionRefused)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failed(ReasonDecodeError)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, failed(ReasonBadStatus)
	}
	return respBody, delivered()
}
