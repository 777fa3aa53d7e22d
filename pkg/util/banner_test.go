package util_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exporter-installer/pkg/util"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	util.PrintBanner(&buf, "installer", "cyan")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, util.ColorCyan))
	assert.Greater(t, strings.Count(out, "\n"), 2)
}

func TestColorize(t *testing.T) {
	assert.Equal(t, util.ColorRed+"x"+util.ColorReset, util.Colorize("red", "x"))
	assert.Equal(t, util.ColorReset+"x"+util.ColorReset, util.Colorize("unknown", "x"))
}
