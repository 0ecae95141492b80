package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"registry/core/registry/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0}
)

func upload(name, declared string, data []byte) *domain.PhotoUpload {
	return &domain.PhotoUpload{
		Filename:     name,
		DeclaredType: declared,
		Size:         int64(len(data)),
		Reader:       bytes.NewReader(data),
	}
}

func TestEncodeProducesDecodableDataURI(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 64)...)
	enc := NewEncoder()

	uri, err := enc.Encode(context.Background(), upload("a.png", "image/png", data))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEncodeSniffsTypeInsteadOfTrustingHeaders(t *testing.T) {
	enc := NewEncoder()

	// declared PNG, actually JPEG bytes: the sniffed type wins
	data := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0x02}, 32)...)
	uri, err := enc.Encode(context.Background(), upload("lie.png", "image/png", data))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	// declared PNG, actually text
	_, err = enc.Encode(context.Background(), upload("lie2.png", "image/png", []byte("hello, world")))
	assert.ErrorIs(t, err, domain.ErrPhotoUnsupported)
}

func TestEncodeEnforcesSizeCapOnActualBytes(t *testing.T) {
	enc := NewEncoder(WithMaxBytes(128))

	small := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x03}, 64)...)
	_, err := enc.Encode(context.Background(), upload("ok.png", "image/png", small))
	require.NoError(t, err)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x03}, 256)...)
	_, err = enc.Encode(context.Background(), upload("big.png", "image/png", big))
	assert.ErrorIs(t, err, domain.ErrPhotoTooLarge)
}

func TestEncodeHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enc := NewEncoder()
	_, err := enc.Encode(ctx, upload("a.png", "image/png", pngHeader))
	assert.ErrorIs(t, err, context.Canceled)
}
