package observability

import (
	"context"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
)

// AuditLog records structured events for operations that touch durability
// or trust: append, compaction, signature verification, policy rejection,
// degraded queries. It never decides whether an operation succeeds; it
// only records what happened after the decision is made.
type AuditLog interface {
	Emit(ctx context.Context, eventCode string, fields map[string]any)
}

// loggerAuditLog adapts logger.Logger (as injected into long-lived types
// throughout this module, e.g. store.Store.Log) into an AuditLog. Fields
// are flattened into alternating key/value pairs the way a sugared zap
// logger expects.
type loggerAuditLog struct {
	log logger.Logger
}

// NewAuditLog wraps an already-configured logger.Logger. Callers typically
// obtain one via logger.New(level) followed by logger.Sugar.WithServiceName,
// the same construction store.Store and internal/rvftest use.
func NewAuditLog(log logger.Logger) AuditLog {
	return &loggerAuditLog{log: log}
}

func (a *loggerAuditLog) Emit(_ context.Context, eventCode string, fields map[string]any) {
	if a.log == nil {
		return
	}
	a.log.Infof("%s %s", eventCode, formatFields(fields))
}

func formatFields(fields map[string]any) string {
	s := ""
	for k, v := range fields {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", k, v)
	}
	return s
}

// NopAuditLog discards every event. Used by callers that construct a
// Store or Engine without a configured logger — e.g. one-off tooling and
// most unit tests.
func NopAuditLog() AuditLog { return nopAuditLog{} }

type nopAuditLog struct{}

func (nopAuditLog) Emit(context.Context, string, map[string]any) {}
