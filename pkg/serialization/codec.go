// Package serialization encodes archive records and board snapshots.
//
// A Serializer is a three stage pipeline: codec (JSON or MessagePack),
// compression (none, gzip, zstd) and optional AES-GCM sealing. Decoding
// runs the stages in reverse.
package serialization

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts values to and from bytes.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// Codec names accepted by CodecByName.
const (
	CodecJSON    = "json"
	CodecMsgPack = "msgpack"
)

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                    { return CodecJSON }

type msgpackCodec struct{}

func (msgpackCodec) Encode(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (msgpackCodec) Decode(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func (msgpackCodec) Name() string { return CodecMsgPack }

// JSON returns the encoding/json codec.
func JSON() Codec { return jsonCodec{} }

// MsgPack returns the MessagePack codec.
func MsgPack() Codec { return msgpackCodec{} }

// CodecByName resolves a codec from configuration.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecJSON:
		return JSON(), nil
	case CodecMsgPack, "":
		return MsgPack(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
