package store

import (
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/ruvector/rvf/observability"
	"github.com/ruvector/rvf/security"
)

// Options configures OpenWithPolicy/CreateSigned. Grounded on the
// teacher's Option/ReaderOptions shape (massifs/options.go,
// massifs/readeroptions.go): a plain struct assembled by functional
// options, rather than a constructor with a dozen positional parameters.
type Options struct {
	TrustStore *security.TrustStore
	Audit      observability.AuditLog
	Log        logger.Logger

	// Dimension/BaseDtype/ProfileID are only consulted by CreateSigned;
	// OpenWithPolicy reads these fields back out of the Level 0 page.
	Dimension uint16
	BaseDtype byte
	ProfileID byte

	BaseNProbe      uint32
	EfSearchDefault uint32
	MaxEpochDrift   uint32
}

// Option mutates an Options value under construction.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Audit:         observability.NopAuditLog(),
		MaxEpochDrift: 64,
	}
}

func WithTrustStore(ts *security.TrustStore) Option {
	return func(o *Options) { o.TrustStore = ts }
}

func WithAuditLog(a observability.AuditLog) Option {
	return func(o *Options) { o.Audit = a }
}

func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Log = l }
}

func WithDimension(dim uint16, dtype byte) Option {
	return func(o *Options) { o.Dimension = dim; o.BaseDtype = dtype }
}

func WithProfile(id byte) Option {
	return func(o *Options) { o.ProfileID = id }
}

func WithDefaults(baseNProbe, efSearch, maxEpochDrift uint32) Option {
	return func(o *Options) {
		o.BaseNProbe = baseNProbe
		o.EfSearchDefault = efSearch
		o.MaxEpochDrift = maxEpochDrift
	}
}
