package seed

import (
	"encoding/binary"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/observability"
)

// DownloadManifest is the decoded TagLayerManifest-bearing TLV stream
// embedded in a seed (spec §4.7/§6): which hosts to fetch from, the
// certificate pin to enforce regardless of system CA trust, the session
// token/TTL to attach to requests, and the ordered list of layers to pull.
type DownloadManifest struct {
	PrimaryHost  string
	FallbackHost string
	CertPin      []byte
	SessionToken []byte
	TTLSeconds   uint32
	FullFileHash [format.ContentHash128Size]byte
	TotalSize    uint64
	Layers       []format.LayerEntry
}

// DecodeDownloadManifest parses the TLV stream carried in Parsed.DownloadManifest.
func DecodeDownloadManifest(payload []byte) (*DownloadManifest, error) {
	records, err := format.ParseTLVStream(payload)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedMagic, err)
	}
	m := &DownloadManifest{}
	for _, r := range records {
		switch r.Tag {
		case format.TagPrimaryHost:
			m.PrimaryHost = string(r.Value)
		case format.TagFallbackHost:
			m.FallbackHost = string(r.Value)
		case format.TagCertPin:
			m.CertPin = append([]byte(nil), r.Value...)
		case format.TagSessionToken:
			m.SessionToken = append([]byte(nil), r.Value...)
		case format.TagTTLSeconds:
			if len(r.Value) >= 4 {
				m.TTLSeconds = binary.LittleEndian.Uint32(r.Value)
			}
		case format.TagFullFileHash:
			copy(m.FullFileHash[:], r.Value)
		case format.TagTotalSize:
			if len(r.Value) >= 8 {
				m.TotalSize = binary.LittleEndian.Uint64(r.Value)
			}
		case format.TagLayerManifest:
			layers, err := format.DecodeLayerManifest(r.Value)
			if err != nil {
				return nil, observability.Wrap(observability.CodeSeedMagic, err)
			}
			m.Layers = layers
		}
	}
	return m, nil
}
