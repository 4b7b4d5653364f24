package seed

import (
	"bytes"
	"context"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/observability"
)

// ExpandState is where an Expander sits in the progressive materialization
// state machine of spec §4.7/§9: a verified seed starts with nothing but a
// microkernel, and every Poll call pulls in one more layer until either
// every layer in the manifest has landed or one layer could not be fetched
// and verified from any host, which leaves the Expander in StateFailed.
type ExpandState int

const (
	StateVerified ExpandState = iota
	StateMicrokernelReady
	StateExpanding
	StateFullyMaterialized
	StateFailed
)

// Expander drives the host-polled progressive fetch. Nothing here blocks:
// each Poll call performs at most one layer fetch and returns, so the
// caller decides the pacing (a goroutine loop, a UI tick, a cron job).
type Expander struct {
	Verified *Verified
	Manifest *DownloadManifest
	Fetcher  NetworkFetcher

	State       ExpandState
	Microkernel []byte
	Layers      map[uint16][]byte

	next int
	err  error
}

// NewExpander decodes the seed's download manifest and, if the microkernel
// is Brotli-compressed, inflates it immediately — that part never needs
// the network, so it happens synchronously at construction rather than on
// the first Poll.
func NewExpander(v *Verified, fetcher NetworkFetcher) (*Expander, error) {
	m, err := DecodeDownloadManifest(v.DownloadManifest)
	if err != nil {
		return nil, err
	}

	e := &Expander{
		Verified: v,
		Manifest: m,
		Fetcher:  fetcher,
		Layers:   make(map[uint16][]byte, len(m.Layers)),
	}

	mk := v.Microkernel
	if v.Header.Flags&format.SeedFlagMicrokernelBrotli != 0 && len(mk) > 0 {
		inflated, err := io.ReadAll(brotli.NewReader(bytes.NewReader(mk)))
		if err != nil {
			return nil, observability.Wrap(observability.CodeSeedMagic, err)
		}
		mk = inflated
	}
	e.Microkernel = mk
	e.State = StateMicrokernelReady
	return e, nil
}

// Done reports whether every layer in the manifest has been materialized.
func (e *Expander) Done() bool {
	return e.State == StateFullyMaterialized
}

// Poll fetches and verifies the next undownloaded layer, trying the
// primary host first and the fallback host if the primary fails or serves
// bytes whose content hash does not match. It
// advances State and returns (true, nil) once every layer has landed, or
// (false, nil) if there is more work to do after this call.
func (e *Expander) Poll(ctx context.Context) (bool, error) {
	if e.State == StateFullyMaterialized {
		return true, nil
	}
	if e.State == StateFailed {
		return false, e.err
	}
	if e.next >= len(e.Manifest.Layers) {
		e.State = StateFullyMaterialized
		return true, nil
	}

	e.State = StateExpanding
	layer := e.Manifest.Layers[e.next]

	body, err := e.fetchLayer(ctx, layer)
	if err != nil {
		e.State = StateFailed
		e.err = err
		return false, err
	}

	got := format.ContentHash128(body)
	if got != layer.ContentHash {
		e.State = StateFailed
		e.err = observability.New(observability.CodeSecHashMismatch, "rvqs: downloaded layer content hash mismatch")
		return false, e.err
	}

	e.Layers[layer.LayerID] = body
	e.next++
	if e.next >= len(e.Manifest.Layers) {
		e.State = StateFullyMaterialized
		return true, nil
	}
	return false, nil
}

func (e *Expander) fetchLayer(ctx context.Context, layer format.LayerEntry) ([]byte, error) {
	body, err := e.Fetcher.Fetch(ctx, e.Manifest.PrimaryHost, layer)
	if err == nil && format.ContentHash128(body) == layer.ContentHash {
		return body, nil
	}
	if e.Manifest.FallbackHost == "" {
		return body, err
	}
	fbBody, fbErr := e.Fetcher.Fetch(ctx, e.Manifest.FallbackHost, layer)
	if fbErr != nil && err == nil {
		// Hand back the primary's body so Poll reports its hash mismatch.
		return body, nil
	}
	return fbBody, fbErr
}
