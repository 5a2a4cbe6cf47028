package server

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// The eval service speaks two wire encodings: JSON for curl-friendly
// clients and CBOR for compact binary ones. Both codecs plug into Connect
// by name; the client's content type selects which one runs.

// jsonCodec implements connect.Codec over encoding/json.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// cborCodec implements connect.Codec with canonical-mode CBOR encoding,
// so equal messages always encode to equal bytes.
type cborCodec struct {
	enc cbor.EncMode
}

func newCBORCodec() cborCodec {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	return cborCodec{enc: em}
}

func (cborCodec) Name() string {
	return "cbor"
}

func (c cborCodec) Marshal(msg any) ([]byte, error) {
	return c.enc.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	if err := cbor.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal cbor: %w", err)
	}
	return nil
}
