package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"guest": "Alice",
		"show":  map[string]any{"name": "Morning News", "hosts": []any{"Bob", "Carol"}},
		"speed": 200.0,
	}

	assert.Equal(t, "Welcome Alice!", Interpolate("Welcome ${guest}!", data))
	assert.Equal(t, "Morning News with Carol", Interpolate("${show.name} with ${show.hosts[1]}", data))
	assert.Equal(t, "speed 200", Interpolate("speed ${speed}", data))
}

func TestInterpolateFallback(t *testing.T) {
	data := map[string]any{"guest": "Alice"}
	assert.Equal(t, "Hi everyone", Interpolate("Hi ${audience|everyone}", data))
	assert.Equal(t, "Hi Alice", Interpolate("Hi ${ guest | nobody }", data))
	assert.Equal(t, "Hi friend", Interpolate("Hi ${guest|friend}", nil))
}

func TestInterpolateUnknownStaysVerbatim(t *testing.T) {
	text := "Hello ${missing.path} and ${list[3]}"
	assert.Equal(t, text, Interpolate(text, map[string]any{"list": []any{"a"}}))
	assert.Equal(t, text, Interpolate(text, nil))
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("${a} ${b.c|x} ${a} ${ }")
	assert.Equal(t, []string{"a", "b.c"}, got)
}

func TestParsePath(t *testing.T) {
	steps, err := parsePath("show.hosts[1][0]")
	assert.NoError(t, err)
	assert.Equal(t, []step{{key: "show"}, {key: "hosts"}, {index: 1}, {index: 0}}, steps)

	for _, bad := range []string{"", "a..b", "a[x]", "a[-1]"} {
		_, err := parsePath(bad)
		assert.Error(t, err, bad)
	}
}
