package format

import "encoding/binary"

// TLV tags for the RVQS download manifest. Tag/length are both uint16;
// length is the byte count of Value that follows.
const (
	TagPrimaryHost     uint16 = 0x0001
	TagFallbackHost    uint16 = 0x0002
	TagFullFileHash    uint16 = 0x0003
	TagTotalSize       uint16 = 0x0004
	TagLayerManifest   uint16 = 0x0005
	TagSessionToken    uint16 = 0x0006
	TagTTLSeconds      uint16 = 0x0007
	TagCertPin         uint16 = 0x0008

	tlvHeaderSize = 4 // tag(2) + length(2)
)

// TLVRecord is one decoded tag/length/value triple.
type TLVRecord struct {
	Tag   uint16
	Value []byte
}

// AppendTLV appends tag and value to buf in wire form, grounded on the
// qcow2 reference material's ExtensionHeader loop (read tag, read length,
// read payload, advance) adapted to a writer.
func AppendTLV(buf []byte, tag uint16, value []byte) []byte {
	hdr := make([]byte, tlvHeaderSize)
	binary.LittleEndian.PutUint16(hdr[0:2], tag)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(value)))
	buf = append(buf, hdr...)
	buf = append(buf, value...)
	return buf
}

// ParseTLVStream decodes a flat sequence of TLV records until b is
// exhausted. It never allocates more than one record at a time and returns
// ErrTLVTruncated rather than reading past the end of b — this is the
// function an adversarially-crafted download manifest runs through, so it
// must never panic or over-read regardless of the tag/length values it is
// given.
func ParseTLVStream(b []byte) ([]TLVRecord, error) {
	var records []TLVRecord
	for len(b) > 0 {
		if len(b) < tlvHeaderSize {
			return nil, ErrTLVTruncated
		}
		tag := binary.LittleEndian.Uint16(b[0:2])
		length := binary.LittleEndian.Uint16(b[2:4])
		b = b[tlvHeaderSize:]
		if int(length) > len(b) {
			return nil, ErrTLVTruncated
		}
		records = append(records, TLVRecord{Tag: tag, Value: b[:length]})
		b = b[length:]
	}
	return records, nil
}

// LayerEntry is one decoded entry from a TagLayerManifest record: a single
// downloadable layer with its priority and expected content hash.
type LayerEntry struct {
	LayerID      uint16
	Priority     uint8
	RequiredFlag bool
	Offset       uint64
	Size         uint64
	ContentHash  [ContentHash128Size]byte
}

const layerEntrySize = 2 + 1 + 1 + 8 + 8 + ContentHash128Size // 36 bytes

// EncodeLayerManifest packs a slice of LayerEntry into the value bytes of a
// TagLayerManifest TLV record.
func EncodeLayerManifest(entries []LayerEntry) []byte {
	buf := make([]byte, 0, len(entries)*layerEntrySize)
	for _, e := range entries {
		rec := make([]byte, layerEntrySize)
		binary.LittleEndian.PutUint16(rec[0:2], e.LayerID)
		rec[2] = e.Priority
		if e.RequiredFlag {
			rec[3] = 1
		}
		binary.LittleEndian.PutUint64(rec[4:12], e.Offset)
		binary.LittleEndian.PutUint64(rec[12:20], e.Size)
		copy(rec[20:20+ContentHash128Size], e.ContentHash[:])
		buf = append(buf, rec...)
	}
	return buf
}

// DecodeLayerManifest is the inverse of EncodeLayerManifest.
func DecodeLayerManifest(b []byte) ([]LayerEntry, error) {
	if len(b)%layerEntrySize != 0 {
		return nil, ErrTLVTruncated
	}
	n := len(b) / layerEntrySize
	entries := make([]LayerEntry, 0, n)
	for i := 0; i < n; i++ {
		rec := b[i*layerEntrySize : (i+1)*layerEntrySize]
		var e LayerEntry
		e.LayerID = binary.LittleEndian.Uint16(rec[0:2])
		e.Priority = rec[2]
		e.RequiredFlag = rec[3] != 0
		e.Offset = binary.LittleEndian.Uint64(rec[4:12])
		e.Size = binary.LittleEndian.Uint64(rec[12:20])
		copy(e.ContentHash[:], rec[20:20+ContentHash128Size])
		entries = append(entries, e)
	}
	return entries, nil
}
