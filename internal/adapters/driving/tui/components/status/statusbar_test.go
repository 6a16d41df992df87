package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/pagefill/internal/adapters/driving/tui/keymap"
	"github.com/archivist-labs/pagefill/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	bar := NewBar(s, km)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.ResultCount())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilArgs(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_Init(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
}

func TestBar_SetState(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateSearching)

	assert.Equal(t, StateSearching, bar.State())
}

func TestBar_SetMessage(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetMessage("custom message")

	assert.Equal(t, "custom message", bar.Message())
}

func TestBar_SetResultCount(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetResultCount(12)

	assert.Equal(t, 12, bar.ResultCount())
}

func TestBar_SetWidth(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(120)

	assert.Equal(t, 120, bar.Width())
}

func TestBar_View_Ready(t *testing.T) {
	bar := NewBar(nil, nil)

	output := bar.View()

	assert.Contains(t, output, "Ready")
}

func TestBar_View_Searching(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateSearching)

	output := bar.View()

	assert.Contains(t, output, "Searching")
}

func TestBar_View_Error(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("something broke")

	output := bar.View()

	assert.Contains(t, output, "Error")
	assert.Contains(t, output, "something broke")
}

func TestBar_View_Error_NoMessage(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)

	output := bar.View()

	assert.Contains(t, output, "Error")
}

func TestBar_View_Results(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateResults)
	bar.SetResultCount(7)

	output := bar.View()

	assert.Contains(t, output, "7 results")
}

func TestBar_View_Reading(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateReading)
	bar.SetMessage("record rec-1, page 3")

	output := bar.View()

	assert.Contains(t, output, "record rec-1, page 3")
}

func TestBar_View_ResultsHints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateResults)
	bar.SetResultCount(2)

	output := bar.View()

	// Results mode shows the open binding hint
	assert.Contains(t, output, "enter")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("stale")
	bar.SetResultCount(9)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.ResultCount())
}

func TestBar_Update_Passive(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(nil)

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}
