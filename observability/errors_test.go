package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := &Error{Code: CodeSecHashMismatch, PointerName: "entrypoint"}
	b := &Error{Code: CodeSecHashMismatch, PointerName: "top_layer"}
	assert.True(t, errors.Is(a, b))

	c := &Error{Code: CodeSecUnsigned}
	assert.False(t, errors.Is(a, c))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Wrap(CodeIO, inner)
	assert.ErrorIs(t, wrapped, inner)
}

func TestRecoverable(t *testing.T) {
	assert.True(t, CodeIO.Recoverable())
	assert.True(t, CodeSeedHost.Recoverable())
	assert.False(t, CodeSecHashMismatch.Recoverable())
	assert.False(t, CodeFmtCRC.Recoverable())
}

func TestErrorMessage(t *testing.T) {
	e := New(CodeFmtMagic, "bad magic")
	assert.Equal(t, "E_FMT_MAGIC: bad magic", e.Error())

	bare := &Error{Code: CodeBudgetTime}
	assert.Equal(t, "E_BUDGET_TIME", bare.Error())
}
