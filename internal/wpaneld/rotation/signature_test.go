package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	base := []Action{action("a", "x", "y"), action("b", "z")}

	assert.Equal(t, Identity(base), Identity([]Action{action("a", "x", "y"), action("b", "z")}))

	moved := []Action{action("a", "x"), action("b", "y", "z")}
	assert.NotEqual(t, Identity(base), Identity(moved), "item moved between actions")

	joined := []Action{action("a", "xy")}
	assert.NotEqual(t, Identity([]Action{action("a", "x", "y")}), Identity(joined), "ids are delimited")

	withPayload := []Action{action("a", "x", "y"), action("b", "z")}
	withPayload[0].Items[0].Payload = []byte(`{"price":1}`)
	assert.Equal(t, Identity(base), Identity(withPayload), "payload is not part of identity")
}

func TestFingerprint(t *testing.T) {
	base := Content{Actions: []Action{action("a", "x", "y")}}
	fp := Fingerprint(base)

	same := Content{Actions: []Action{action("a", "x", "y")}}
	assert.Equal(t, fp, Fingerprint(same))

	priced := Content{Actions: []Action{action("a", "x", "y")}}
	priced.Actions[0].Items[1].Payload = []byte(`{"price":2}`)
	assert.NotEqual(t, fp, Fingerprint(priced))

	reordered := Content{Actions: []Action{action("a", "x", "y")}}
	reordered.Actions[0].Items[0].Ordinal = 3
	assert.NotEqual(t, fp, Fingerprint(reordered))

	configured := Content{
		Actions: []Action{action("a", "x", "y")},
		Config:  &PanelConfig{PollingInterval: 30 * time.Second},
	}
	assert.NotEqual(t, fp, Fingerprint(configured))
}

func TestContent_MediaRefs(t *testing.T) {
	c := Content{Actions: []Action{action("a", "x", "y"), action("b", "x", "z")}}
	c.Actions[1].Items = append(c.Actions[1].Items, Item{ID: "nomedia"})

	assert.Equal(t, []string{"media/x", "media/y", "media/z"}, c.MediaRefs())
	assert.Equal(t, 5, c.Items())
}
