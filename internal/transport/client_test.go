package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/model"
	"pure2p/internal/wire"
)

func TestSendMessageReturnsDeliveredOn200(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	c := NewClient()
	result := c.SendMessage(context.Background(), addr, "alice", model.MessageTypeText, []byte("hi"))
	assert.Equal(Delivered, result.Outcome)
}

func TestSendMessageReturnsFailedOnBadStatus(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	c := NewClient()
	result := c.SendMessage(context.Background(), addr, "alice", model.MessageTypeText, []byte("hi"))
	assert.Equal(Failed, result.Outcome)
	assert.Equal(ReasonBadStatus, result.Reason)
}

func TestSendMessageReturnsRetryOnConnectionRefused(t *testing.T) {
	assert := assert.New(t)

	c := NewClient()
	result := c.SendMessage(context.Background(), "127.0.0.1:1", "alice", model.MessageTypeText, []byte("hi"))
	assert.Equal(Retry, result.Outcome)
	assert.Equal(ReasonConnectionRefused, result.Reason)
}

func TestSendPingDecodesSuccessfulResponse(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := wire.PingResponse{UID: "bob", Status: wire.PingStatusOK}
		body, err := wire.EncodeCBOR(resp)
		assert.Nil(err)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	c := NewClient()
	resp, result := c.SendPing(context.Background(), addr, "token")
	assert.Equal(Delivered, result.Outcome)
	assert.NotNil(resp)
	assert.Equal("bob", resp.UID)
}
