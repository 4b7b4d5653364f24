// Package store owns the memory-mapped RVF file: open/create lifecycle,
// append-only segment writes, tail-page rewrite, and compaction. It is the
// one package that touches a file handle directly — manifest, security,
// and index all work against byte slices this package hands them.
package store

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// init calls automaxprocs.Set once per process, matching spec §5's
// "parallel-threaded host" query concurrency model: GOMAXPROCS should
// reflect the container's real CPU quota, not the host's, so that query
// parallelism (spec §5 "queries may execute in parallel across threads")
// doesn't oversubscribe a cgroup-limited container. Grounded on the
// teacher's transitive go.uber.org/automaxprocs requirement (pulled in via
// go-datatrails-common), which the teacher itself never calls directly —
// RVF calls it because this CORE, unlike the teacher's blob-store client,
// is the process entrypoint's concurrency model.
func init() {
	if os.Getenv("RVF_DISABLE_AUTOMAXPROCS") != "" {
		return
	}
	_, _ = maxprocs.Set()
}
