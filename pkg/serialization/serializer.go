package serialization

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrUnknownCompression = errors.New("unknown compression")
	ErrInvalidKey         = errors.New("encryption key must be 16, 24 or 32 bytes")
	ErrCiphertextTooShort = errors.New("ciphertext shorter than nonce")
)

// Config selects the pipeline stages. A nil Codec means MessagePack.
type Config struct {
	Codec       Codec
	Compression Compression
	// EncryptKey enables AES-GCM sealing when non-empty.
	EncryptKey []byte
}

// Serializer runs the encode/compress/seal pipeline. It holds no mutable
// state and is safe for concurrent use.
type Serializer struct {
	codec       Codec
	compression Compression
	key         []byte
}

// New builds a serializer from cfg.
func New(cfg Config) (*Serializer, error) {
	if cfg.Codec == nil {
		cfg.Codec = MsgPack()
	}
	if cfg.Compression == "" {
		cfg.Compression = CompressionNone
	}
	if _, err := ParseCompression(string(cfg.Compression)); err != nil {
		return nil, err
	}
	switch len(cfg.EncryptKey) {
	case 0, 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	return &Serializer{codec: cfg.Codec, compression: cfg.Compression, key: cfg.EncryptKey}, nil
}

// FromNames builds a serializer from configuration strings.
func FromNames(codec, compression string, key []byte) (*Serializer, error) {
	c, err := CodecByName(codec)
	if err != nil {
		return nil, err
	}
	comp, err := ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	return New(Config{Codec: c, Compression: comp, EncryptKey: key})
}

// Default is MessagePack with zstd and no encryption.
func Default() *Serializer {
	return &Serializer{codec: MsgPack(), compression: CompressionZstd}
}

// Name describes the pipeline, e.g. "msgpack+zstd".
func (s *Serializer) Name() string {
	name := s.codec.Name() + "+" + string(s.compression)
	if len(s.key) > 0 {
		name += "+aesgcm"
	}
	return name
}

// Marshal encodes, compresses and, when keyed, seals v.
func (s *Serializer) Marshal(v any) ([]byte, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", s.codec.Name(), err)
	}
	if data, err = compress(s.compression, data); err != nil {
		return nil, fmt.Errorf("%s compress: %w", s.compression, err)
	}
	if len(s.key) > 0 {
		if data, err = seal(s.key, data); err != nil {
			return nil, fmt.Errorf("seal: %w", err)
		}
	}
	return data, nil
}

// Unmarshal reverses Marshal into v.
func (s *Serializer) Unmarshal(data []byte, v any) error {
	var err error
	if len(s.key) > 0 {
		if data, err = open(s.key, data); err != nil {
			return fmt.Errorf("open: %w", err)
		}
	}
	if data, err = decompress(s.compression, data); err != nil {
		return fmt.Errorf("%s decompress: %w", s.compression, err)
	}
	if err = s.codec.Decode(data, v); err != nil {
		return fmt.Errorf("%s decode: %w", s.codec.Name(), err)
	}
	return nil
}

// Decode is Unmarshal into a new T.
func Decode[T any](s *Serializer, data []byte) (T, error) {
	var v T
	err := s.Unmarshal(data, &v)
	return v, err
}
