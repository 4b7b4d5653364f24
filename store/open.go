package store

import (
	"context"
	"os"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/manifest"
	"github.com/ruvector/rvf/observability"
	"github.com/ruvector/rvf/security"
)

// OpenWithPolicy implements spec §4.2's open_with_policy algorithm
// (steps 1-7): memory-map the file, validate the Level 0 tail page,
// enforce the signature and hotset content-hash rules the given policy
// requires, and return a store mounted at L0Verified (Level 1 loads
// lazily on first request that needs it).
func OpenWithPolicy(ctx context.Context, path string, policy security.Policy, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, observability.Wrap(observability.CodeIO, err)
	}

	s := &Store{
		path:       path,
		file:       f,
		policy:     policy,
		trustStore: o.TrustStore,
		audit:      o.Audit,
		log:        o.Log,
		mount:      manifest.NewMountTracker(),
		hashCache:  manifest.NewHashCache(),
	}

	data, size, err := s.mapFile()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	page := data[size-format.Level0PageSize : size]
	l0, err := format.ParseLevel0(page)
	if err != nil {
		_ = data.Unmap()
		_ = f.Close()
		return nil, classifyFormatError(err)
	}

	if l0.Version < format.Version2 && policy.RequiresSignature() {
		_ = data.Unmap()
		_ = f.Close()
		return nil, observability.Wrap(observability.CodeFmtVersion, format.ErrVersionTooOld)
	}

	if l0.Flags&format.FlagEncrypted != 0 {
		_ = data.Unmap()
		_ = f.Close()
		return nil, observability.ErrEncryptionUnsupported
	}

	if policy.RequiresSignature() {
		if len(l0.Signature) == 0 {
			_ = data.Unmap()
			_ = f.Close()
			s.emit(ctx, observability.CodeSecUnsigned, map[string]any{"path": path})
			return nil, security.ErrUnsignedManifest()
		}
		if err := verifySignature(l0, s.trustStore); err != nil {
			_ = data.Unmap()
			_ = f.Close()
			s.emit(ctx, errCode(err), map[string]any{"path": path})
			return nil, err
		}
	} else if len(l0.Signature) > 0 {
		// A signed file opened under a lenient policy is still worth
		// verifying if we have the means to, but a failure here does not
		// block open — only Strict/Paranoid treat signature failure as
		// fatal.
		_ = verifySignature(l0, s.trustStore)
	}

	if policy.VerifiesContentHashOnOpen() {
		if err := verifyHotset(l0, data, s.hashCache); err != nil {
			_ = data.Unmap()
			_ = f.Close()
			s.emit(ctx, observability.CodeSecHashMismatch, map[string]any{"path": path})
			return nil, err
		}
	}

	snap := &Snapshot{data: data, size: size, L0: l0, tailOffset: size - format.Level0PageSize}
	s.snap.Store(snap)
	s.fileID = l0.FileID
	s.pendingL0 = *l0
	s.mount.Transition(manifest.L0Verified)

	if policy == security.Permissive && s.log != nil {
		s.log.Infof("rvf: opened %s under Permissive policy (signature and content-hash checks skipped)", path)
	}

	return s, nil
}

// verifySignature implements spec §4.2 step 4-5: resolve the signer by
// expected-signer pin, else iterate configured signers, distinguishing
// ErrUnknownSigner (no configured key even matches) from
// ErrInvalidSignature (a configured key exists but the bytes don't
// verify).
func verifySignature(l0 *format.Level0, ts *security.TrustStore) error {
	if ts == nil {
		return security.ErrUnknownSigner("")
	}
	signedBytes := signedPrefix(l0)

	if fp, ok := ts.ExpectedSigner(l0.FileID); ok {
		v, found := ts.Lookup(fp)
		if !found {
			return security.ErrUnknownSigner(fp)
		}
		if err := v.Verify(signedBytes, l0.Signature); err != nil {
			return security.ErrInvalidSignature(fp)
		}
		return nil
	}

	fingerprints := ts.Fingerprints()
	if len(fingerprints) == 0 {
		return security.ErrUnknownSigner("")
	}
	for _, fp := range fingerprints {
		v, _ := ts.Lookup(fp)
		if v.Verify(signedBytes, l0.Signature) == nil {
			return nil
		}
	}
	return security.ErrInvalidSignature("")
}

// signedPrefix reconstructs the exact byte range the signature covers
// (format.SignedBytes) without needing the original page bytes: it
// re-marshals l0 with its signature blanked, which produces identical
// bytes in [0, OffSignature) since nothing before the signature field
// depends on the signature's content.
func signedPrefix(l0 *format.Level0) []byte {
	clone := *l0
	clone.Signature = nil
	page, _ := clone.MarshalBinary()
	return format.SignedBytes(page[:])
}

// verifyHotset implements spec §4.2 step 6: for each hotset pointer, read
// its segment and compare the content hash.
func verifyHotset(l0 *format.Level0, data []byte, cache *manifest.HashCache) error {
	for _, ptr := range l0.HotsetPointers() {
		if ptr.Offset == 0 {
			continue // not yet populated (e.g. minimal bootstrap file)
		}
		if ptr.Offset+format.SegmentHeaderSize > uint64(len(data)) {
			return observability.New(observability.CodeFmtL1CRC, "hotset pointer references bytes beyond end of file")
		}
		hdr, err := format.UnmarshalSegmentHeader(data[ptr.Offset : ptr.Offset+format.SegmentHeaderSize])
		if err != nil {
			return observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		start := ptr.Offset + format.SegmentHeaderSize
		end := start + hdr.PayloadLength
		if end > uint64(len(data)) {
			return observability.New(observability.CodeFmtL1CRC, "hotset segment payload truncated")
		}
		payload := data[start:end]
		ok, actual := cache.Verify(ptr.Offset, payload, ptr.Hash)
		if !ok {
			return security.ErrContentHashMismatch(string(ptr.Name), ptr.Offset, ptr.Hash[:], actual[:])
		}
	}
	return nil
}

func classifyFormatError(err error) error {
	switch err {
	case format.ErrInvalidMagic:
		return observability.Wrap(observability.CodeFmtMagic, err)
	case format.ErrVersionTooNew:
		return observability.Wrap(observability.CodeFmtVersion, err)
	case format.ErrCRCMismatch:
		return observability.Wrap(observability.CodeFmtCRC, err)
	default:
		return observability.Wrap(observability.CodeIO, err)
	}
}

func errCode(err error) observability.Code {
	if oe, ok := err.(*observability.Error); ok {
		return oe.Code
	}
	return observability.CodeIO
}
