// ABOUTME: Tests for mIRC formatting helpers.

package ircfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBold(t *testing.T) {
	assert.Equal(t, "\x02jira\x02", Bold("jira"))
}

func TestColored(t *testing.T) {
	assert.Equal(t, "\x0303CLOSED\x0f", Colored("CLOSED", Green))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, Colored("RESOLVED", Green), Status("RESOLVED", true))
	assert.Equal(t, Colored("NEW", Red), Status("NEW", false))
}

func TestStrip(t *testing.T) {
	in := Bold("bug") + " " + Colored("#1234", Red) + ": plain"
	assert.Equal(t, "bug #1234: plain", Strip(in))

	// Background color form.
	assert.Equal(t, "xy", Strip("\x0304,01x\x0fy"))
}
