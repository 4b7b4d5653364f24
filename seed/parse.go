package seed

import (
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/observability"
)

// Parsed is the decoded-but-unverified shape of an RVQS payload: the fixed
// header plus the three variable regions sliced straight from the source
// buffer (spec §4.7 "parse_seed(bytes) → SeedHeader | SeedError").
type Parsed struct {
	Header *format.SeedHeader

	// SignedBytes is everything the trailing signature covers: the fixed
	// header plus microkernel plus download manifest, in that order.
	SignedBytes []byte

	Microkernel     []byte
	DownloadManifest []byte
	Signature       []byte
}

// ParseSeed decodes the fixed header and slices out the microkernel,
// download manifest, and signature regions without validating any of them
// — that is VerifySeed's job. ParseSeed only needs to trust the length
// fields enough to avoid an out-of-bounds slice.
func ParseSeed(data []byte) (*Parsed, error) {
	h, err := format.ParseSeedHeader(data)
	if err != nil {
		return nil, observability.Wrap(observability.CodeFmtMagic, err)
	}
	if len(data) < int(h.TotalSeedSize) {
		return nil, observability.New(observability.CodeFmtMagic, "rvqs: seed shorter than total_seed_size")
	}
	if h.Flags&format.SeedFlagEncrypted != 0 {
		return nil, observability.ErrEncryptionUnsupported
	}

	mkEnd := uint64(h.MicrokernelOffset) + uint64(h.MicrokernelSize)
	mfEnd := uint64(h.ManifestOffset) + uint64(h.ManifestSize)
	if mkEnd > uint64(len(data)) || mfEnd > uint64(len(data)) {
		return nil, observability.New(observability.CodeFmtMagic, "rvqs: microkernel/manifest region exceeds seed length")
	}

	sigStart := format.SeedHeaderFixedSize
	if h.MicrokernelSize > 0 {
		sigStart = int(mkEnd)
	}
	if h.ManifestSize > 0 {
		sigStart = int(mfEnd)
	}
	if sigStart+int(h.SigLength) > len(data) {
		return nil, observability.New(observability.CodeFmtMagic, "rvqs: signature exceeds seed length")
	}

	p := &Parsed{
		Header:           h,
		SignedBytes:      data[:sigStart],
		Microkernel:      data[h.MicrokernelOffset:mkEnd],
		DownloadManifest: data[h.ManifestOffset:mfEnd],
		Signature:        data[sigStart : sigStart+int(h.SigLength)],
	}
	return p, nil
}
