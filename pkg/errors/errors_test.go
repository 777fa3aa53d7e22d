package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConfiguration, "no default url")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeConfiguration, err.Code)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "[CONFIGURATION] no default url", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, "download failed", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestContextRenderedSorted(t *testing.T) {
	err := WrapWithContext(ErrCodeFilesystem, "write failed", stderrors.New("disk full"),
		map[string]any{"path": "/opt/x", "artifact": "process-agent"})

	assert.Equal(t, "[FILESYSTEM] write failed (artifact=process-agent, path=/opt/x): disk full", err.Error())
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := NewWithContext(ErrCodeArchive, "bad gzip header", map[string]any{"path": "a.tar.gz"})
	outer := fmt.Errorf("setup node exporter: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeArchive))
	assert.False(t, IsCode(outer, ErrCodeNetwork))
	assert.True(t, stderrors.Is(outer, ErrArchive))
	assert.Equal(t, ErrCodeArchive, CodeOf(outer))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
}
