package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	asset, err := decodeDataURI(pngDataURI(t, 5, 7))
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MIMEType)
	assert.Equal(t, 5, asset.Width)
	assert.Equal(t, 7, asset.Height)
	assert.True(t, isDecodable(asset))
	assert.Empty(t, asset.ID)
}

func TestDecodeDataURI_Variants(t *testing.T) {
	asset, err := decodeDataURI("DATA:image/jpg;base64,aGVs\nbG8")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", asset.MIMEType)
	assert.Equal(t, []byte("hello"), asset.Data)
	assert.False(t, isDecodable(asset))

	asset, err = decodeDataURI("data:image/svg+xml,%3Csvg%3E%3C/svg%3E")
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg></svg>"), asset.Data)
	assert.True(t, isDecodable(asset))
}

func TestDecodeDataURI_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"https://example.com/x.png", errNotDataURI},
		{"", errNotDataURI},
		{"data:text/html,<b>x</b>", errNotImage},
		{"data:image/png;base64", errBadImageData},
		{"data:image/png;base64,", errBadImageData},
		{"data:image/png;base64,@@@", errBadImageData},
	}
	for _, tt := range tests {
		_, err := decodeDataURI(tt.src)
		assert.ErrorIs(t, err, tt.want, tt.src)
	}
}
