// Package manifest materializes the integrity chain spec §4.3 requires on
// top of the raw byte layouts in format: the Level 1 segment directory, the
// per-mount state machine, epoch-drift arithmetic, and the write-once
// content-hash cache. Nothing here touches a file handle directly — store
// owns the memory map and hands manifest the byte slices to parse.
package manifest
