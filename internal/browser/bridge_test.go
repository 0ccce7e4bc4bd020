package browser

import (
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/picker"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent(`{"kind":"mouseout","target":4,"related":9,"related_in_toolbar":true}`)
	require.NoError(t, err)
	assert.Equal(t, picker.Event{
		Kind:             picker.MouseOut,
		Target:           dom.NodeID(4),
		Related:          dom.NodeID(9),
		RelatedInToolbar: true,
	}, ev)

	ev, err = DecodeEvent(`{"kind":"toolbar","action":"repick","toolbar_id":"tb_x","in_toolbar":true}`)
	require.NoError(t, err)
	assert.Equal(t, picker.ToolbarAction, ev.Kind)
	assert.Equal(t, picker.ActionRepick, ev.Action)
	assert.Equal(t, "tb_x", ev.ToolbarID)

	_, err = DecodeEvent(`{"kind":"dblclick"}`)
	assert.Error(t, err)
	_, err = DecodeEvent(`not json`)
	assert.Error(t, err)
}

func TestBridgeScript(t *testing.T) {
	assert.True(t, strings.HasPrefix(bridgeJS, "() => {"), "bridge must be a function expression for Eval")
	assert.Contains(t, bridgeJS, bindingName)
	for _, attr := range []string{dom.AttrSkip, dom.AttrInvisible, dom.AttrLineBreak} {
		assert.Contains(t, bridgeJS, attr)
	}
	for _, l := range picker.AllListeners {
		assert.Contains(t, bridgeJS, l.String()+": [", "listener %s has a page-side definition", l)
	}
}

func TestBridgeScript_WeakNodeTables(t *testing.T) {
	assert.Contains(t, bridgeJS, "const ids = new WeakMap()")
	assert.Contains(t, bridgeJS, "new WeakRef(n)")
	assert.Contains(t, bridgeJS, "new FinalizationRegistry(")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeHeadless, m)
	m, err = ParseMode("Headful")
	require.NoError(t, err)
	assert.Equal(t, ModeHeadful, m)
	_, err = ParseMode("kiosk")
	assert.Error(t, err)
	assert.Equal(t, "http", ModeHTTP.String())
}

func TestBlockSet(t *testing.T) {
	set := blockSet([]string{"Images", "fonts", "xhr", "Script"})
	assert.True(t, set[proto.NetworkResourceTypeImage])
	assert.True(t, set[proto.NetworkResourceTypeFont])
	assert.False(t, set[proto.NetworkResourceTypeStylesheet])
	assert.Len(t, set, 2)
}
