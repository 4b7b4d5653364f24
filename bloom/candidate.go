package bloom

import "encoding/binary"

// CandidateSketch wraps a single-filter (filter index 0 of the 4-way
// region) bitset sized for a query's expected candidate count, letting the
// safety-net scan skip vector ids it has already scored without keeping a
// growable set around. It is rebuilt fresh per query; there is no
// persistence concern here, unlike the on-disk bitset layouts elsewhere in
// this package.
type CandidateSketch struct {
	region []byte
}

// NewCandidateSketch allocates a sketch sized for elementCount expected
// insertions at bitsPerElement density and k hash rounds. Typical callers
// pick bitsPerElement=10, k=7 for a ~1% false-positive rate.
func NewCandidateSketch(elementCount uint64, bitsPerElement uint64, k uint8) (*CandidateSketch, error) {
	if elementCount == 0 {
		elementCount = 1
	}
	mBits := MBitsSafeCast(MBitsV1(elementCount, bitsPerElement))
	if mBits == 0 {
		return nil, ErrMBitsOverflow
	}
	region := make([]byte, RegionBytesV1(mBits))
	if err := InitV1(region, elementCount, bitsPerElement, k); err != nil {
		return nil, err
	}
	return &CandidateSketch{region: region}, nil
}

func idToElement(id uint64) []byte {
	var elem [ValueBytes]byte
	binary.LittleEndian.PutUint64(elem[:8], id)
	return elem[:]
}

// InsertID records id as seen.
func (s *CandidateSketch) InsertID(id uint64) error {
	return InsertV1(s.region, 0, idToElement(id))
}

// MayContain reports whether id may have already been seen. A false return
// is definitive; a true return must still be confirmed by the caller's own
// seen-set if exactness matters (the safety-net scan only uses this to skip
// work, never to decide inclusion in the final result set).
func (s *CandidateSketch) MayContain(id uint64) (bool, error) {
	return MaybeContainsV1(s.region, 0, idToElement(id))
}
