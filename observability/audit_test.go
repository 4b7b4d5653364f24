package observability

import (
	"context"
	"testing"
)

func TestNopAuditLogDoesNotPanic(t *testing.T) {
	a := NopAuditLog()
	a.Emit(context.Background(), "segment.append", map[string]any{"offset": uint64(4096)})
}
