package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/hashia/internal/core"
)

func TestPrintSummary(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := core.Snapshot{
		"b-user": {core.NewTextTurn(core.RoleUser, "hi", at)},
		"a-user": {
			{Role: core.RoleUser, Parts: []core.Part{core.ImagePart(core.InlineImage{MIMEType: "image/png", Data: "x"}), core.TextPart("what?")}, Timestamp: at},
			core.NewTextTurn(core.RoleModel, "a cat", at.Add(time.Minute)),
		},
	}

	var out bytes.Buffer
	require.NoError(t, printSummary(&out, snap))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "a-user"))
	assert.Contains(t, lines[1], "2025-03-01 12:01:00")
	assert.Equal(t, []string{"a-user", "2", "1", "2025-03-01", "12:01:00"}, strings.Fields(lines[1]))
	assert.True(t, strings.HasPrefix(lines[2], "b-user"))
}

func TestPrintTurns(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	turns := []core.Turn{
		{Role: core.RoleUser, Parts: []core.Part{core.ImagePart(core.InlineImage{MIMEType: "image/png", Data: "x"}), core.TextPart("what?")}, Timestamp: at},
		core.NewTextTurn(core.RoleModel, "a cat", at),
	}

	var out bytes.Buffer
	require.NoError(t, printTurns(&out, turns))

	assert.Equal(t,
		"2025-03-01 12:00:00  user   [image/png image] what?\n"+
			"2025-03-01 12:00:00  model  a cat\n",
		out.String())
}

func TestReadArchive_MissingPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typo", "archive.db")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, _, err := readArchive(cmd, path)
	assert.ErrorContains(t, err, "does not exist")

	_, statErr := os.Stat(filepath.Join(dir, "typo"))
	assert.True(t, os.IsNotExist(statErr), "no directory is created for a missing archive")

	_, _, err = readArchive(cmd, dir)
	assert.ErrorContains(t, err, "is a directory")
}
