package format

import "encoding/binary"

// Level0PageSize is the fixed size of the tail page that ends every RVF
// file.
const Level0PageSize = 4096

// Magic is the four byte file identifier ("RVF1").
var Magic = [4]byte{'R', 'V', 'F', '1'}

// Layout versions. Version1 is the pre-hardening layout (no content hash
// region, legacy signature offset); Version2 places content hashes at
// 0x0A0-0x0FF and the signature at 0x100. The version field alone dictates
// how the rest of the page is interpreted.
const (
	Version1 uint16 = 1
	Version2 uint16 = 2

	// CurrentVersion is written by every new create_signed call.
	CurrentVersion = Version2
)

// Flags bits carried in the Level 0 header.
const (
	FlagEncrypted uint16 = 1 << 0 // reserved: encryption at rest, no key schedule defined; readers must reject
)

// Signature algorithm identifiers for the Level 0 signature region.
const (
	SigAlgoEd25519  uint16 = 0
	SigAlgoMLDSA65  uint16 = 1
	Ed25519SigBytes        = 64
	// MLDSA65SigBytes is the nominal ML-DSA-65 signature length; concrete
	// verifiers validate the actual encoded length against sig_length.
	MLDSA65SigBytes = 3309
)

// Byte offsets of every Level 0 field, version 2 layout. These are the
// single source of truth for Marshal/Unmarshal — every other reference to a
// Level 0 field offset in this module must go through these constants.
const (
	OffMagic              = 0x000
	OffVersion            = 0x004
	OffFlags              = 0x006
	OffFileID             = 0x008
	OffEpoch              = 0x010
	OffTotalVectorCount   = 0x014
	OffDimension          = 0x018
	OffBaseDtype          = 0x01A
	OffProfileID          = 0x01B
	OffCreatedNs          = 0x01C
	OffL1DirectoryOffset  = 0x024
	OffL1DirectorySize    = 0x02C
	OffEntrypointSegOff   = 0x034
	OffTopLayerSegOff     = 0x03C
	OffCentroidSegOff     = 0x044
	OffQuantDictSegOff    = 0x04C
	OffHotCacheSegOff     = 0x054
	OffBaseNProbe         = 0x05C
	OffEfSearchDefault    = 0x060
	OffReservedPointers   = 0x064 // 60 bytes, zero-filled
	OffEntrypointHash     = 0x0A0
	OffTopLayerHash       = 0x0B0
	OffCentroidHash       = 0x0C0
	OffQuantDictHash      = 0x0D0
	OffHotCacheHash       = 0x0E0
	OffCentroidEpoch      = 0x0F0
	OffMaxEpochDrift       = 0x0F4
	OffReservedHardening  = 0x0F8 // 8 bytes, zero-filled
	OffSigAlgo            = 0x100
	OffSigLength          = 0x102
	OffSignature          = 0x104
	OffCRC                = 0xFFC

	reservedPointersLen  = 0x0A0 - OffReservedPointers   // 60
	reservedHardeningLen = OffSigAlgo - OffReservedHardening // 8
	maxSignatureLen      = OffCRC - OffSignature             // 0xEF8
)

// BaseDtype enumerates the vector element encoding.
type BaseDtype uint8

const (
	DtypeFloat32 BaseDtype = iota
	DtypeFloat16
	DtypeInt8
)

// HotsetPointer identifies which Level 0 pointer/hash pair a content-hash
// check failure refers to (used by observability.Error.PointerName).
type HotsetPointer string

const (
	PointerEntrypoint HotsetPointer = "entrypoint_seg_offset"
	PointerTopLayer   HotsetPointer = "toplayer_seg_offset"
	PointerCentroid   HotsetPointer = "centroid_seg_offset"
	PointerQuantDict  HotsetPointer = "quantdict_seg_offset"
	PointerHotCache   HotsetPointer = "hot_cache_seg_offset"
)

// Level0 is the fully decoded tail page (version 2 layout). Version 1 files
// are decoded into the same struct by ParseLevel0; fields absent from v1
// (the content hash region) are left zero.
type Level0 struct {
	Version          uint16
	Flags            uint16
	FileID           uint64
	Epoch            uint32
	TotalVectorCount uint32
	Dimension        uint16
	BaseDtype        BaseDtype
	ProfileID        uint8
	CreatedNs        uint64

	L1DirectoryOffset uint64
	L1DirectorySize   uint64

	EntrypointSegOffset uint64
	TopLayerSegOffset   uint64
	CentroidSegOffset   uint64
	QuantDictSegOffset  uint64
	HotCacheSegOffset   uint64

	BaseNProbe      uint32
	EfSearchDefault uint32

	EntrypointContentHash [ContentHash128Size]byte
	TopLayerContentHash   [ContentHash128Size]byte
	CentroidContentHash   [ContentHash128Size]byte
	QuantDictContentHash  [ContentHash128Size]byte
	HotCacheContentHash   [ContentHash128Size]byte

	CentroidEpoch  uint32
	MaxEpochDrift  uint32

	SigAlgo   uint16
	Signature []byte
}

// HotsetPointers returns the five (name, offset, expected hash) triples
// that an opener checks against the segments they point to.
type HotsetEntry struct {
	Name   HotsetPointer
	Offset uint64
	Hash   [ContentHash128Size]byte
}

func (l0 *Level0) HotsetPointers() []HotsetEntry {
	return []HotsetEntry{
		{PointerEntrypoint, l0.EntrypointSegOffset, l0.EntrypointContentHash},
		{PointerTopLayer, l0.TopLayerSegOffset, l0.TopLayerContentHash},
		{PointerCentroid, l0.CentroidSegOffset, l0.CentroidContentHash},
		{PointerQuantDict, l0.QuantDictSegOffset, l0.QuantDictContentHash},
		{PointerHotCache, l0.HotCacheSegOffset, l0.HotCacheContentHash},
	}
}

// SignedRegionEnd returns the first byte not covered by the signature, i.e.
// the offset the signature itself starts at.
func SignedRegionEnd() uint64 { return OffSignature }

// MarshalBinary serializes l0 into a deterministic, zero-padded 4096 byte
// page, computing and appending the trailing CRC32C. Uses a pre-sized
// buffer and explicit offset writes rather than reflection, so the layout
// is exactly what the offset table says it is.
func (l0 *Level0) MarshalBinary() ([Level0PageSize]byte, error) {
	var page [Level0PageSize]byte

	if len(l0.Signature) > maxSignatureLen {
		return page, ErrSignatureTooLarge
	}

	copy(page[OffMagic:OffMagic+4], Magic[:])
	binary.LittleEndian.PutUint16(page[OffVersion:], l0.Version)
	binary.LittleEndian.PutUint16(page[OffFlags:], l0.Flags)
	binary.LittleEndian.PutUint64(page[OffFileID:], l0.FileID)
	binary.LittleEndian.PutUint32(page[OffEpoch:], l0.Epoch)
	binary.LittleEndian.PutUint32(page[OffTotalVectorCount:], l0.TotalVectorCount)
	binary.LittleEndian.PutUint16(page[OffDimension:], l0.Dimension)
	page[OffBaseDtype] = byte(l0.BaseDtype)
	page[OffProfileID] = l0.ProfileID
	binary.LittleEndian.PutUint64(page[OffCreatedNs:], l0.CreatedNs)

	binary.LittleEndian.PutUint64(page[OffL1DirectoryOffset:], l0.L1DirectoryOffset)
	binary.LittleEndian.PutUint64(page[OffL1DirectorySize:], l0.L1DirectorySize)

	binary.LittleEndian.PutUint64(page[OffEntrypointSegOff:], l0.EntrypointSegOffset)
	binary.LittleEndian.PutUint64(page[OffTopLayerSegOff:], l0.TopLayerSegOffset)
	binary.LittleEndian.PutUint64(page[OffCentroidSegOff:], l0.CentroidSegOffset)
	binary.LittleEndian.PutUint64(page[OffQuantDictSegOff:], l0.QuantDictSegOffset)
	binary.LittleEndian.PutUint64(page[OffHotCacheSegOff:], l0.HotCacheSegOffset)

	binary.LittleEndian.PutUint32(page[OffBaseNProbe:], l0.BaseNProbe)
	binary.LittleEndian.PutUint32(page[OffEfSearchDefault:], l0.EfSearchDefault)
	// OffReservedPointers..0x0A0 stays zero.

	if l0.Version >= Version2 {
		copy(page[OffEntrypointHash:], l0.EntrypointContentHash[:])
		copy(page[OffTopLayerHash:], l0.TopLayerContentHash[:])
		copy(page[OffCentroidHash:], l0.CentroidContentHash[:])
		copy(page[OffQuantDictHash:], l0.QuantDictContentHash[:])
		copy(page[OffHotCacheHash:], l0.HotCacheContentHash[:])

		binary.LittleEndian.PutUint32(page[OffCentroidEpoch:], l0.CentroidEpoch)
		binary.LittleEndian.PutUint32(page[OffMaxEpochDrift:], l0.MaxEpochDrift)
		// OffReservedHardening..OffSigAlgo stays zero.

		binary.LittleEndian.PutUint16(page[OffSigAlgo:], l0.SigAlgo)
		binary.LittleEndian.PutUint16(page[OffSigLength:], uint16(len(l0.Signature)))
		copy(page[OffSignature:], l0.Signature)
	}

	crc := CRC32C(page[:OffCRC])
	binary.LittleEndian.PutUint32(page[OffCRC:], crc)

	return page, nil
}

// ParseLevel0 validates magic, version, and CRC, then decodes the rest of
// the page. Validation order matters: magic and version are checked first,
// then the CRC, and no other field is decoded until the CRC matches; a CRC
// mismatch is reported as a distinct error from a short/truncated page.
func ParseLevel0(page []byte) (*Level0, error) {
	if len(page) != Level0PageSize {
		return nil, ErrShortPage
	}
	if string(page[OffMagic:OffMagic+4]) != string(Magic[:]) {
		return nil, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint16(page[OffVersion:])
	if version > CurrentVersion {
		return nil, ErrVersionTooNew
	}

	crc := binary.LittleEndian.Uint32(page[OffCRC:])
	if CRC32C(page[:OffCRC]) != crc {
		return nil, ErrCRCMismatch
	}

	l0 := &Level0{Version: version}
	l0.Flags = binary.LittleEndian.Uint16(page[OffFlags:])
	l0.FileID = binary.LittleEndian.Uint64(page[OffFileID:])
	l0.Epoch = binary.LittleEndian.Uint32(page[OffEpoch:])
	l0.TotalVectorCount = binary.LittleEndian.Uint32(page[OffTotalVectorCount:])
	l0.Dimension = binary.LittleEndian.Uint16(page[OffDimension:])
	l0.BaseDtype = BaseDtype(page[OffBaseDtype])
	l0.ProfileID = page[OffProfileID]
	l0.CreatedNs = binary.LittleEndian.Uint64(page[OffCreatedNs:])

	l0.L1DirectoryOffset = binary.LittleEndian.Uint64(page[OffL1DirectoryOffset:])
	l0.L1DirectorySize = binary.LittleEndian.Uint64(page[OffL1DirectorySize:])

	l0.EntrypointSegOffset = binary.LittleEndian.Uint64(page[OffEntrypointSegOff:])
	l0.TopLayerSegOffset = binary.LittleEndian.Uint64(page[OffTopLayerSegOff:])
	l0.CentroidSegOffset = binary.LittleEndian.Uint64(page[OffCentroidSegOff:])
	l0.QuantDictSegOffset = binary.LittleEndian.Uint64(page[OffQuantDictSegOff:])
	l0.HotCacheSegOffset = binary.LittleEndian.Uint64(page[OffHotCacheSegOff:])

	l0.BaseNProbe = binary.LittleEndian.Uint32(page[OffBaseNProbe:])
	l0.EfSearchDefault = binary.LittleEndian.Uint32(page[OffEfSearchDefault:])

	if version >= Version2 {
		copy(l0.EntrypointContentHash[:], page[OffEntrypointHash:])
		copy(l0.TopLayerContentHash[:], page[OffTopLayerHash:])
		copy(l0.CentroidContentHash[:], page[OffCentroidHash:])
		copy(l0.QuantDictContentHash[:], page[OffQuantDictHash:])
		copy(l0.HotCacheContentHash[:], page[OffHotCacheHash:])

		l0.CentroidEpoch = binary.LittleEndian.Uint32(page[OffCentroidEpoch:])
		l0.MaxEpochDrift = binary.LittleEndian.Uint32(page[OffMaxEpochDrift:])

		l0.SigAlgo = binary.LittleEndian.Uint16(page[OffSigAlgo:])
		sigLen := binary.LittleEndian.Uint16(page[OffSigLength:])
		if int(sigLen) > maxSignatureLen {
			return nil, ErrSignatureTooLarge
		}
		if sigLen > 0 {
			l0.Signature = append([]byte(nil), page[OffSignature:OffSignature+uint64(sigLen)]...)
		}
	}

	return l0, nil
}

// SignedBytes returns the prefix of a marshaled page that the signature
// covers: everything before the signature field.
func SignedBytes(page []byte) []byte {
	return page[:OffSignature]
}
