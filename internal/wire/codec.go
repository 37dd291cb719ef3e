package wire

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"

	"pure2p/internal/model"
)

// EncodeCBOR and DecodeCBOR are the production wire codec; EncodeJSON
// and DecodeJSON are the debug codec. Both round-trip every envelope
// type losslessly; boundary errors surface as model.KindCodec so
// handlers can answer 400 on decode failure.

func EncodeCBOR(v interface{}) ([]byte, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, model.NewError(model.KindCodec, "encoding CBOR", err)
	}
	return b, nil
}

func DecodeCBOR(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return model.NewError(model.KindCodec, "decoding CBOR", err)
	}
	return nil
}

func EncodeJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, model.NewError(model.KindCodec, "encoding JSON", err)
	}
	return b, nil
}

func DecodeJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return model.NewError(model.KindCodec, "decoding JSON", err)
	}
	return nil
}

// CheckVersion hard-rejects anything but EnvelopeVersion.
func CheckVersion(version int) error {
	if version != EnvelopeVersion {
		return model.NewError(model.KindValidation, "unsupported envelope version", nil)
	}
	return nil
}
