package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
		want    string
	}{
		{name: "single arg", command: "click", args: []string{"id=submit"}, want: "click-[id=submit]"},
		{name: "two args", command: "type", args: []string{"name=user", "alice"}, want: "type-[name=user, alice]"},
		{name: "no args", command: "getTitle", args: nil, want: "getTitle-[]"},
		{name: "empty arg kept", command: "open", args: []string{""}, want: "open-[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.command, tt.args))
		})
	}
}

func TestSplitArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "single", input: "a", want: []string{"a"}},
		{name: "several", input: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "escaped comma", input: `a\,b,c`, want: []string{"a,b", "c"}},
		{name: "escaped backslash", input: `a\\,b`, want: []string{`a\`, "b"}},
		{name: "trailing empty", input: "a,", want: []string{"a", ""}},
		{name: "dangling escape", input: `a\`, want: []string{`a\`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitArray(tt.input))
		})
	}
}

func TestJoinArray_SplitsBack(t *testing.T) {
	items := []string{"plain", "with,comma", `with\backslash`, ""}
	assert.Equal(t, items, SplitArray(JoinArray(items)))
}

func TestReservedCommands(t *testing.T) {
	assert.ElementsMatch(t, []string{"captureEntirePageScreenshot", "captureScreenshot"}, ReservedCommands())
}
