package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/format"
)

// fakeFetcher serves canned layer bodies keyed by LayerID, failing any
// request aimed at a host not in Hosts.
type fakeFetcher struct {
	Hosts  map[string]bool
	Bodies map[uint16][]byte
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, host string, layer format.LayerEntry) ([]byte, error) {
	f.calls = append(f.calls, host)
	if !f.Hosts[host] {
		return nil, assertErr("host refused")
	}
	return f.Bodies[layer.LayerID], nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func layerFor(id uint16, body []byte) format.LayerEntry {
	return format.LayerEntry{
		LayerID:      id,
		RequiredFlag: true,
		Offset:       0,
		Size:         uint64(len(body)),
		ContentHash:  format.ContentHash128(body),
	}
}

func buildVerified(t *testing.T, layers []format.LayerEntry) *Verified {
	t.Helper()
	var buf []byte
	buf = format.AppendTLV(buf, format.TagPrimaryHost, []byte("primary.example.com"))
	buf = format.AppendTLV(buf, format.TagFallbackHost, []byte("fallback.example.com"))
	buf = format.AppendTLV(buf, format.TagLayerManifest, format.EncodeLayerManifest(layers))

	data := buildSeed(t, nil, buf, nil)
	p, err := ParseSeed(data)
	require.NoError(t, err)
	return &Verified{Parsed: p}
}

func TestExpanderPollMaterializesAllLayers(t *testing.T) {
	l0 := layerFor(0, []byte("layer-zero"))
	l1 := layerFor(1, []byte("layer-one"))
	v := buildVerified(t, []format.LayerEntry{l0, l1})

	fetcher := &fakeFetcher{
		Hosts: map[string]bool{"primary.example.com": true},
		Bodies: map[uint16][]byte{
			0: []byte("layer-zero"),
			1: []byte("layer-one"),
		},
	}

	e, err := NewExpander(v, fetcher)
	require.NoError(t, err)
	assert.Equal(t, StateMicrokernelReady, e.State)

	done, err := e.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, e.Done())

	done, err = e.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, e.Done())

	assert.Equal(t, []byte("layer-zero"), e.Layers[0])
	assert.Equal(t, []byte("layer-one"), e.Layers[1])

	done, err = e.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
}

func TestExpanderPollFallsBackToSecondaryHost(t *testing.T) {
	l0 := layerFor(0, []byte("only-layer"))
	v := buildVerified(t, []format.LayerEntry{l0})

	fetcher := &fakeFetcher{
		Hosts:  map[string]bool{"fallback.example.com": true},
		Bodies: map[uint16][]byte{0: []byte("only-layer")},
	}

	e, err := NewExpander(v, fetcher)
	require.NoError(t, err)

	done, err := e.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"primary.example.com", "fallback.example.com"}, fetcher.calls)
}

func TestExpanderPollFailsOnHashMismatch(t *testing.T) {
	l0 := layerFor(0, []byte("expected"))
	v := buildVerified(t, []format.LayerEntry{l0})

	fetcher := &fakeFetcher{
		Hosts:  map[string]bool{"primary.example.com": true},
		Bodies: map[uint16][]byte{0: []byte("tampered")},
	}

	e, err := NewExpander(v, fetcher)
	require.NoError(t, err)

	_, err = e.Poll(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateFailed, e.State)

	_, err = e.Poll(context.Background())
	assert.Error(t, err)
}

func TestExpanderPollFailsWhenNoHostServesLayer(t *testing.T) {
	l0 := layerFor(0, []byte("data"))
	v := buildVerified(t, []format.LayerEntry{l0})

	fetcher := &fakeFetcher{Hosts: map[string]bool{}}

	e, err := NewExpander(v, fetcher)
	require.NoError(t, err)

	_, err = e.Poll(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateFailed, e.State)
}
