package format

import "errors"

// Distinct format-layer error kinds. These are corruption/shape errors,
// never tamper errors — CRC and signature failures are deliberately kept
// separate (spec invariant: CRC mismatch and signature mismatch must be
// distinguishable).
var (
	ErrInvalidMagic      = errors.New("rvf: invalid file magic")
	ErrVersionTooNew     = errors.New("rvf: layout version not supported by this reader")
	ErrVersionTooOld     = errors.New("rvf: legacy (v1) layout requires Permissive or WarnOnly policy")
	ErrCRCMismatch       = errors.New("rvf: tail page CRC32C mismatch")
	ErrShortPage         = errors.New("rvf: level 0 page is not exactly 4096 bytes")
	ErrSignatureTooLarge = errors.New("rvf: signature does not fit in the reserved region")
	ErrTLVTruncated      = errors.New("rvf: TLV record truncated")
	ErrSegmentTruncated  = errors.New("rvf: segment payload truncated")
)
