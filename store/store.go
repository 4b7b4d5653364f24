package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/edsrzf/mmap-go"
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/manifest"
	"github.com/ruvector/rvf/observability"
	"github.com/ruvector/rvf/security"
)

// Store is an opened or newly created RVF file. It owns the file handle
// and the read-only memory map backing every published Snapshot; writers
// serialize through mu (spec §5 "single-writer, many-reader"), readers
// take a Snapshot and never block on the writer.
//
// Grounded on massifs/massifcommitter.go's MassifCommitter: the same
// three-state creating/extending/current lifecycle, generalized from
// "append a fixed-height massif to blob storage" to "append a segment to
// a memory-mapped local file."
type Store struct {
	path   string
	file   *os.File
	policy security.Policy

	trustStore *security.TrustStore
	signer     security.Signer
	audit      observability.AuditLog
	log        logger.Logger

	mount     *manifest.MountTracker
	hashCache *manifest.HashCache

	mu       sync.Mutex // guards everything below; held for append/write/compact
	snap     snapshotPointer
	pendingL0   format.Level0
	pendingDir  manifest.Directory
	pendingTail uint64
	fileID      uint64
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Policy returns the policy the store was opened under.
func (s *Store) Policy() security.Policy { return s.policy }

// MountState returns the current manifest.MountState (Unmounted,
// L0Verified, L1Verified, L1Dirty, ReadOnly, or Failed).
func (s *Store) MountState() manifest.MountState { return s.mount.State() }

// Snapshot returns the currently published Snapshot. Query callers hold
// this reference for the duration of one query (spec §5 "each query takes
// a reference-counted snapshot at entry and holds it until it returns");
// Go's GC plays the role of the reference count here, since the backing
// mmap is only unmapped when Close is called, never out from under a live
// Snapshot produced by a prior remap.
func (s *Store) Snapshot() *Snapshot { return s.snap.Load() }

// FileID returns the stable identifier preserved across compaction (spec
// §4.2 step 5, invariant 7).
func (s *Store) FileID() uint64 { return s.fileID }

func (s *Store) emit(ctx context.Context, code observability.Code, fields map[string]any) {
	if s.audit == nil {
		return
	}
	f := map[string]any{}
	for k, v := range fields {
		f[k] = v
	}
	s.audit.Emit(ctx, string(code), f)
}

// Close flushes any pending writer-side state and unmaps the file. It does
// not re-sign on close; callers that want a final signed manifest must
// call WriteManifest explicitly before Close (spec §4.2's "optionally
// re-signs" is realized here as "callers opt in, Close never surprises a
// reader by mutating after the fact").
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap := s.snap.Load(); snap != nil {
		if err := snap.data.Unmap(); err != nil {
			return fmt.Errorf("store: unmapping on close: %w", err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("store: closing file: %w", err)
		}
	}
	return nil
}

// mapFile (re)maps the current contents of s.file read-only. Called after
// every write that changes file length: initial open, WriteManifest,
// Compact's post-rename reopen.
func (s *Store) mapFile() (mmap.MMap, int64, error) {
	fi, err := s.file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("store: stat: %w", err)
	}
	size := fi.Size()
	if size < format.Level0PageSize {
		return nil, 0, observability.New(observability.CodeFmtMagic, "file shorter than one level 0 page")
	}
	data, err := mmap.Map(s.file, mmap.RDONLY, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("store: mmap: %w", err)
	}
	return data, size, nil
}
