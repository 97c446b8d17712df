package serialization

import (
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID          string     `json:"id" msgpack:"id"`
	Title       string     `json:"title" msgpack:"title"`
	CompletedAt *time.Time `json:"completed_at,omitempty" msgpack:"completed_at,omitempty"`
	Tags        []string   `json:"tags" msgpack:"tags"`
	Count       int        `json:"count" msgpack:"count"`
}

func sample() record {
	at := time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)
	return record{
		ID:          "r-1",
		Title:       strings.Repeat("run every morning ", 20),
		CompletedAt: &at,
		Tags:        []string{"health", "cardio"},
		Count:       42,
	}
}

func TestCodecs(t *testing.T) {
	for _, codec := range []Codec{JSON(), MsgPack()} {
		t.Run(codec.Name(), func(t *testing.T) {
			in := sample()
			data, err := codec.Encode(in)
			require.NoError(t, err)
			assert.NotEmpty(t, data)

			var out record
			require.NoError(t, codec.Decode(data, &out))
			assert.Equal(t, in.ID, out.ID)
			assert.True(t, in.CompletedAt.Equal(*out.CompletedAt))
			assert.Equal(t, in.Tags, out.Tags)
		})
	}
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("json")
	require.NoError(t, err)
	assert.Equal(t, CodecJSON, c.Name())

	c, err = CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, CodecMsgPack, c.Name())

	_, err = CodecByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	c, err = ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c)

	_, err = ParseCompression("lz4")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestSerializer_Pipelines(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tests := []struct {
		name        string
		codec       string
		compression string
		key         []byte
	}{
		{"json plain", "json", "none", nil},
		{"json gzip", "json", "gzip", nil},
		{"msgpack zstd", "msgpack", "zstd", nil},
		{"msgpack zstd sealed", "msgpack", "zstd", key},
		{"json gzip sealed", "json", "gzip", key},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromNames(tt.codec, tt.compression, tt.key)
			require.NoError(t, err)

			in := sample()
			data, err := s.Marshal(in)
			require.NoError(t, err)

			out, err := Decode[record](s, data)
			require.NoError(t, err)
			assert.Equal(t, in.Title, out.Title)
			assert.Equal(t, in.Count, out.Count)
			assert.True(t, in.CompletedAt.Equal(*out.CompletedAt))
		})
	}
}

func TestSerializer_CompressionShrinksRepetitiveData(t *testing.T) {
	plain, err := FromNames("json", "none", nil)
	require.NoError(t, err)
	packed, err := FromNames("json", "zstd", nil)
	require.NoError(t, err)

	a, err := plain.Marshal(sample())
	require.NoError(t, err)
	b, err := packed.Marshal(sample())
	require.NoError(t, err)
	assert.Less(t, len(b), len(a))
}

func TestSerializer_WrongKeyFails(t *testing.T) {
	k1 := make([]byte, 32)
	k2 := make([]byte, 32)
	k2[0] = 1

	s1, err := New(Config{EncryptKey: k1})
	require.NoError(t, err)
	s2, err := New(Config{EncryptKey: k2})
	require.NoError(t, err)

	data, err := s1.Marshal(sample())
	require.NoError(t, err)

	var out record
	assert.Error(t, s2.Unmarshal(data, &out))
	assert.ErrorIs(t, s1.Unmarshal([]byte{1, 2}, &out), ErrCiphertextTooShort)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{EncryptKey: []byte("short")})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = New(Config{Compression: "brotli"})
	assert.ErrorIs(t, err, ErrUnknownCompression)

	s, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "msgpack+none", s.Name())
	assert.Equal(t, "msgpack+zstd", Default().Name())
}
