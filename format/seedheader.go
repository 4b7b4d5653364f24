package format

import "encoding/binary"

// SeedMagic is the four byte RVQS identifier ("RVQS", which reads as
// 0x52565153 when taken as a big-endian uint32).
var SeedMagic = [4]byte{'R', 'V', 'Q', 'S'}

const SeedVersion1 uint16 = 1

// Seed flag bits.
const (
	SeedFlagMicrokernelPresent   uint16 = 1 << 0
	SeedFlagDownloadManifest     uint16 = 1 << 1
	SeedFlagSigned               uint16 = 1 << 2 // mandatory; unsigned seeds are always rejected
	SeedFlagOfflineCapable       uint16 = 1 << 3
	SeedFlagEncrypted            uint16 = 1 << 4 // reserved, no key schedule defined; readers must reject
	SeedFlagMicrokernelBrotli    uint16 = 1 << 5
	SeedFlagInlineVectors        uint16 = 1 << 6
	SeedFlagSelfUpgrading        uint16 = 1 << 7
)

// MaxSeedSize is the QR payload ceiling for an Ed25519-signed seed.
const MaxSeedSize = 2953

// Fixed-offset fields of the RVQS header, up to but excluding the variable
// microkernel/manifest/signature regions.
const (
	SeedOffMagic          = 0x000
	SeedOffVersion        = 0x004
	SeedOffFlags          = 0x006
	SeedOffFileID         = 0x008
	SeedOffTotalVecCount  = 0x010
	SeedOffDimension      = 0x014
	SeedOffBaseDtype      = 0x016
	SeedOffProfileID      = 0x017
	SeedOffCreatedNs      = 0x018
	SeedOffMicrokernelOff = 0x020
	SeedOffMicrokernelSz  = 0x024
	SeedOffManifestOff    = 0x028
	SeedOffManifestSz     = 0x02C
	SeedOffSigAlgo        = 0x030
	SeedOffSigLength      = 0x032
	SeedOffTotalSeedSize  = 0x034
	SeedOffContentHash    = 0x038
	SeedHeaderFixedSize   = 0x040
)

// SeedHeader is the fully decoded fixed portion of an RVQS payload. The
// variable microkernel bytes, download manifest TLV bytes, and trailing
// signature are sliced directly from the source buffer by the caller
// (seed.ParseSeed), since they are only ever read once and never mutated.
type SeedHeader struct {
	Version          uint16
	Flags            uint16
	FileID           uint64
	TotalVectorCount uint32
	Dimension        uint16
	BaseDtype        BaseDtype
	ProfileID        uint8
	CreatedNs        uint64

	MicrokernelOffset uint32
	MicrokernelSize   uint32
	ManifestOffset    uint32
	ManifestSize      uint32

	SigAlgo         uint16
	SigLength       uint16
	TotalSeedSize   uint32
	ContentHash     [ContentHash64Size]byte
}

// ParseSeedHeader decodes the fixed-offset prefix of an RVQS payload. It
// does not validate the signature or the embedded offsets against the
// actual buffer length — that is seed.ParseSeed's job, since this package
// only knows about byte layout, not about trust.
func ParseSeedHeader(b []byte) (*SeedHeader, error) {
	if len(b) < SeedHeaderFixedSize {
		return nil, ErrShortPage
	}
	if string(b[SeedOffMagic:SeedOffMagic+4]) != string(SeedMagic[:]) {
		return nil, ErrInvalidMagic
	}
	h := &SeedHeader{}
	h.Version = binary.LittleEndian.Uint16(b[SeedOffVersion:])
	if h.Version > SeedVersion1 {
		return nil, ErrVersionTooNew
	}
	h.Flags = binary.LittleEndian.Uint16(b[SeedOffFlags:])
	h.FileID = binary.LittleEndian.Uint64(b[SeedOffFileID:])
	h.TotalVectorCount = binary.LittleEndian.Uint32(b[SeedOffTotalVecCount:])
	h.Dimension = binary.LittleEndian.Uint16(b[SeedOffDimension:])
	h.BaseDtype = BaseDtype(b[SeedOffBaseDtype])
	h.ProfileID = b[SeedOffProfileID]
	h.CreatedNs = binary.LittleEndian.Uint64(b[SeedOffCreatedNs:])

	h.MicrokernelOffset = binary.LittleEndian.Uint32(b[SeedOffMicrokernelOff:])
	h.MicrokernelSize = binary.LittleEndian.Uint32(b[SeedOffMicrokernelSz:])
	h.ManifestOffset = binary.LittleEndian.Uint32(b[SeedOffManifestOff:])
	h.ManifestSize = binary.LittleEndian.Uint32(b[SeedOffManifestSz:])

	h.SigAlgo = binary.LittleEndian.Uint16(b[SeedOffSigAlgo:])
	h.SigLength = binary.LittleEndian.Uint16(b[SeedOffSigLength:])
	h.TotalSeedSize = binary.LittleEndian.Uint32(b[SeedOffTotalSeedSize:])
	copy(h.ContentHash[:], b[SeedOffContentHash:SeedOffContentHash+ContentHash64Size])

	return h, nil
}

// MarshalBinary serializes the fixed header only; the caller appends the
// microkernel, manifest, and signature bytes.
func (h *SeedHeader) MarshalBinary() []byte {
	buf := make([]byte, SeedHeaderFixedSize)
	copy(buf[SeedOffMagic:], SeedMagic[:])
	binary.LittleEndian.PutUint16(buf[SeedOffVersion:], h.Version)
	binary.LittleEndian.PutUint16(buf[SeedOffFlags:], h.Flags)
	binary.LittleEndian.PutUint64(buf[SeedOffFileID:], h.FileID)
	binary.LittleEndian.PutUint32(buf[SeedOffTotalVecCount:], h.TotalVectorCount)
	binary.LittleEndian.PutUint16(buf[SeedOffDimension:], h.Dimension)
	buf[SeedOffBaseDtype] = byte(h.BaseDtype)
	buf[SeedOffProfileID] = h.ProfileID
	binary.LittleEndian.PutUint64(buf[SeedOffCreatedNs:], h.CreatedNs)

	binary.LittleEndian.PutUint32(buf[SeedOffMicrokernelOff:], h.MicrokernelOffset)
	binary.LittleEndian.PutUint32(buf[SeedOffMicrokernelSz:], h.MicrokernelSize)
	binary.LittleEndian.PutUint32(buf[SeedOffManifestOff:], h.ManifestOffset)
	binary.LittleEndian.PutUint32(buf[SeedOffManifestSz:], h.ManifestSize)

	binary.LittleEndian.PutUint16(buf[SeedOffSigAlgo:], h.SigAlgo)
	binary.LittleEndian.PutUint16(buf[SeedOffSigLength:], h.SigLength)
	binary.LittleEndian.PutUint32(buf[SeedOffTotalSeedSize:], h.TotalSeedSize)
	copy(buf[SeedOffContentHash:], h.ContentHash[:])

	return buf
}
