package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/model"
)

func TestEnvelopeCBORRoundTrip(t *testing.T) {
	assert := assert.New(t)

	env := NewEnvelope("aaaa", "bbbb", model.MessageTypeText, false, []byte("hello"))

	encoded, err := EncodeCBOR(env)
	assert.Nil(err)

	var decoded MessageEnvelope
	err = DecodeCBOR(encoded, &decoded)
	assert.Nil(err)
	assert.Equal(env, decoded)
}

func TestEnvelopeJSONRoundTrip(t *testing.T) {
	assert := assert.New(t)

	env := NewEnvelope("aaaa", "bbbb", model.MessageTypeDeleteChat, true, []byte{1, 2, 3})

	encoded, err := EncodeJSON(env)
	assert.Nil(err)

	var decoded MessageEnvelope
	err = DecodeJSON(encoded, &decoded)
	assert.Nil(err)
	assert.Equal(env, decoded)
}

func TestCheckVersionRejectsMismatch(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(CheckVersion(EnvelopeVersion))
	assert.NotNil(CheckVersion(EnvelopeVersion + 1))
}

func TestPingRequestResponseRoundTrip(t *testing.T) {
	assert := assert.New(t)

	req := PingRequest{ContactToken: "abc.def"}
	encoded, err := EncodeCBOR(req)
	assert.Nil(err)
	var decodedReq PingRequest
	assert.Nil(DecodeCBOR(encoded, &decodedReq))
	assert.Equal(req, decodedReq)

	resp := PingResponse{UID: "uid123", Status: PingStatusOK}
	encoded, err = EncodeCBOR(resp)
	assert.Nil(err)
	var decodedResp PingResponse
	assert.Nil(DecodeCBOR(encoded, &decodedResp))
	assert.Equal(resp, decodedResp)
}
