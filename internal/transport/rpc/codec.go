package rpc

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

// call là một phần tử của batch; Input giữ nguyên bytes để decode
// theo input type của procedure
type call struct {
	ID        any
	Procedure string
	Input     []byte
}

// Codec là wire format của RPC body. Response dùng cùng codec với request.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	decodeBatch(data []byte) ([]call, error)
}

// =====================================================
// JSON
// =====================================================

type jsonCodec struct{}

func (jsonCodec) ContentType() string                { return contentTypeJSON }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) decodeBatch(data []byte) ([]call, error) {
	var raw []struct {
		ID        any             `json:"id"`
		Procedure string          `json:"procedure"`
		Input     json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]call, len(raw))
	for i, r := range raw {
		out[i] = call{ID: r.ID, Procedure: r.Procedure, Input: r.Input}
	}
	return out, nil
}

// =====================================================
// CBOR
// =====================================================

// struct không có cbor tag thì fxamacker/cbor dùng json tag, nên DTO
// dùng chung cho hai codec
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	var err error
	cborEnc, err = encOpts.EncMode()
	if err != nil {
		panic("rpc: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("rpc: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

func (cborCodec) ContentType() string                { return contentTypeCBOR }
func (cborCodec) Marshal(v any) ([]byte, error)      { return cborEnc.Marshal(v) }
func (cborCodec) Unmarshal(data []byte, v any) error { return cborDec.Unmarshal(data, v) }

func (cborCodec) decodeBatch(data []byte) ([]call, error) {
	var raw []struct {
		ID        any             `cbor:"id"`
		Procedure string          `cbor:"procedure"`
		Input     cbor.RawMessage `cbor:"input"`
	}
	if err := cborDec.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]call, len(raw))
	for i, r := range raw {
		out[i] = call{ID: r.ID, Procedure: r.Procedure, Input: r.Input}
	}
	return out, nil
}

// codecFor chọn codec theo Content-Type (request) hoặc Accept (GET)
func codecFor(header string) Codec {
	if strings.HasPrefix(strings.TrimSpace(strings.ToLower(header)), contentTypeCBOR) {
		return cborCodec{}
	}
	return jsonCodec{}
}
