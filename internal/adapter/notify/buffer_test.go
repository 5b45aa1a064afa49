package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_DrainKeepsOrderAndEmpties(t *testing.T) {
	b := NewBuffer(nil)
	b.Info("walk-in")
	b.Warning("refund skipped")
	b.Success("done")
	b.Error("boom")

	got := b.Drain()
	require.Len(t, got, 4)
	assert.Equal(t, []Notice{
		{Level: LevelInfo, Message: "walk-in"},
		{Level: LevelWarning, Message: "refund skipped"},
		{Level: LevelSuccess, Message: "done"},
		{Level: LevelError, Message: "boom"},
	}, got)

	assert.Empty(t, b.Drain())
	assert.NotNil(t, b.Drain())
}
