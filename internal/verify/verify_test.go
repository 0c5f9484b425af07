package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/cryptox"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
	"github.com/Nkovaturient/blocklock-kit/internal/payload"
)

func TestVerifyReveal_ValidPayload(t *testing.T) {
	v := NewVerifier(logging.Nop())

	p := payload.New("aabbccdd", "bafy-locator-1")
	p.Filename = "movie.mp4"
	data, err := p.Marshal()
	require.NoError(t, err)

	m, err := v.VerifyReveal(context.Background(), data, LocatorHash("bafy-locator-1"))
	require.NoError(t, err)
	assert.Equal(t, "aabbccdd", m.Key)
	assert.Equal(t, "bafy-locator-1", m.Locator)
	assert.Equal(t, "movie.mp4", m.Filename)
	assert.Equal(t, payload.DefaultMimeType, m.MimeType)
}

func TestVerifyReveal_HashMismatchRejected(t *testing.T) {
	v := NewVerifier(logging.Nop())

	data, err := payload.New("aabb", "actual-locator").Marshal()
	require.NoError(t, err)

	m, err := v.VerifyReveal(context.Background(), data, LocatorHash("expected-locator"))
	assert.ErrorIs(t, err, common.ErrHashMismatch)
	assert.Nil(t, m, "rejected candidate must not produce metadata")
}

func TestVerifyReveal_BareKeyFallback(t *testing.T) {
	v := NewVerifier(logging.Nop())

	raw := []byte("ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100")
	m, err := v.VerifyReveal(context.Background(), raw, LocatorHash("whatever"))
	require.NoError(t, err)

	assert.Equal(t, string(raw), m.Key)
	assert.Empty(t, m.Locator, "bare key payload carries no locator")
	assert.Equal(t, payload.DefaultFilename, m.Filename)
}

func TestVerifyReveal_JSONWithoutLocatorFallsBack(t *testing.T) {
	v := NewVerifier(logging.Nop())

	data, err := json.Marshal(map[string]string{"k": "aabb"})
	require.NoError(t, err)

	m, err := v.VerifyReveal(context.Background(), data, LocatorHash("x"))
	require.NoError(t, err)
	assert.Equal(t, string(data), m.Key, "payload without locator is treated as opaque key text")
}

func TestLocatorHash_Deterministic(t *testing.T) {
	a := LocatorHash("loc")
	b := LocatorHash("loc")
	c := LocatorHash("other")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDecodeContentKey_RoundTripWithCodec(t *testing.T) {
	key := cryptox.NewContentKey()

	m := payload.MediaMetadata{Key: hex.EncodeToString(key)}
	got, err := DecodeContentKey(&m)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	frame, err := cryptox.Encode([]byte("content"), key)
	require.NoError(t, err)
	plain, err := cryptox.Decode(frame, got)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), plain)
}

func TestDecodeContentKey_NotHex(t *testing.T) {
	m := payload.MediaMetadata{Key: "zz-not-hex"}
	_, err := DecodeContentKey(&m)
	assert.Error(t, err)
}
