package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("missing order"))
	assert.True(t, IsKind(err, KindNotFound))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ProcessorUnavailable(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(RefundFailed(stderrors.New("declined"))))
	assert.True(t, Retryable(ProcessorUnavailable(stderrors.New("timeout"))))
	assert.False(t, Retryable(Conflict("duplicate")))
	assert.False(t, Retryable(stderrors.New("plain")))
}
