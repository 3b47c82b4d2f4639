package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/shotrec/shotrec/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		locator  string
		wantKind locatorKind
		wantSel  string
	}{
		{locator: "id=submit", wantKind: locatorCSS, wantSel: `[id="submit"]`},
		{locator: "name=user", wantKind: locatorCSS, wantSel: `[name="user"]`},
		{locator: "css=form > button", wantKind: locatorCSS, wantSel: "form > button"},
		{locator: "xpath=//a[@href='/x']", wantKind: locatorXPath, wantSel: "//a[@href='/x']"},
		{locator: "//div", wantKind: locatorXPath, wantSel: "//div"},
		{locator: "a[href=x]", wantKind: locatorCSS, wantSel: "a[href=x]"},
		{locator: "#plain", wantKind: locatorCSS, wantSel: "#plain"},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			kind, sel := parseLocator(tt.locator)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantSel, sel)
		})
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		target string
		want   string
	}{
		{name: "no base", base: "", target: "/login", want: "/login"},
		{name: "relative path", base: "http://localhost:8080/app/", target: "login", want: "http://localhost:8080/app/login"},
		{name: "absolute path", base: "http://localhost:8080/app/", target: "/login", want: "http://localhost:8080/login"},
		{name: "absolute url wins", base: "http://localhost:8080/", target: "https://example.test/x", want: "https://example.test/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveURL(tt.base, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	p := New(DefaultConfig(), nil)

	_, err := p.Execute(context.Background(), "dragAndDrop", []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestExecute_NotStarted(t *testing.T) {
	p := New(DefaultConfig(), nil)

	_, err := p.Execute(context.Background(), "getTitle", nil)
	assert.True(t, errors.Is(err, ErrNotStarted))

	_, err = p.GetBoolean(context.Background(), "isElementPresent", []string{"id=x"})
	assert.True(t, errors.Is(err, ErrNotStarted))
}

func TestExecute_MissingArguments(t *testing.T) {
	p := New(DefaultConfig(), nil)

	_, err := p.Execute(context.Background(), "type", []string{"id=user"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected at least 2 argument(s), got 1")
}

func TestStop_WhenNotStarted(t *testing.T) {
	p := New(DefaultConfig(), nil)

	require.NoError(t, p.Stop(context.Background()))
	assert.Empty(t, p.RemoteControlServerLocation())
}

func TestSetExtensionJS(t *testing.T) {
	p := New(DefaultConfig(), nil)
	p.SetExtensionJS("window.__shotrec = true")
	assert.Equal(t, "window.__shotrec = true", p.extensionJS)
}

func TestCommands_IncludeReservedCaptureCommands(t *testing.T) {
	cmds := Commands()
	for _, reserved := range processor.ReservedCommands() {
		assert.Contains(t, cmds, reserved)
	}
}

func TestCheckCommand(t *testing.T) {
	assert.NoError(t, CheckCommand("open", 1))
	assert.NoError(t, CheckCommand("getTitle", 0))
	assert.ErrorIs(t, CheckCommand("hover", 1), ErrUnknownCommand)
	assert.ErrorContains(t, CheckCommand("type", 1), "type: expected at least 2 argument(s), got 1")
}
