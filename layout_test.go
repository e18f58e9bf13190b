package gridastar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	text := "S..#\r\n\n.#..\n..#E\n\n"
	grid, err := ParseLayout(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, 3, grid.Rows())
	assert.Equal(t, 4, grid.Cols())
	assert.Equal(t, []Cell{{0, 3}, {1, 1}, {2, 2}}, grid.Walls())
	start, _ := grid.Start()
	end, _ := grid.End()
	assert.Equal(t, Cell{0, 0}, start)
	assert.Equal(t, Cell{2, 3}, end)
	assert.Equal(t, "S..#\n.#..\n..#E\n", grid.String())
}

func TestParseLayoutRoundTrip(t *testing.T) {
	grid := mustLayout(t, "S..", "...", "..E")
	start, end := endpoints(t, grid)
	_, err := Run(t.Context(), grid, start, end)
	require.NoError(t, err)

	again, err := ParseLayout(strings.NewReader(grid.String()))
	require.NoError(t, err)
	assert.Equal(t, grid.String(), again.String())
	assert.Equal(t, "S**\n..*\n..E\n", again.String())
}

func TestParseLayoutErrors(t *testing.T) {
	tests := map[string]string{
		"empty":      "\n\n",
		"ragged":     "S..\n..\n..E",
		"unknown":    "S.x\n..E",
		"two starts": "S.S\n..E",
		"two ends":   "S.E\n..E",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout(strings.NewReader(text))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

// endlessRows yields "....\n" forever.
type endlessRows struct{ offset int }

func (r *endlessRows) Read(p []byte) (int, error) {
	const row = "....\n"
	for i := range p {
		p[i] = row[r.offset%len(row)]
		r.offset++
	}
	return len(p), nil
}

func TestParseLayoutLimited(t *testing.T) {
	grid, err := ParseLayoutLimited(strings.NewReader("S..\n...\n..E\n"), 9)
	require.NoError(t, err)
	assert.Equal(t, 3, grid.Rows())

	_, err = ParseLayoutLimited(strings.NewReader("S..\n...\n..E\n"), 8)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseLayoutLimited(&endlessRows{}, 1000)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "exceeds 1000 cells")

	_, err = ParseLayout(strings.NewReader(strings.Repeat(".", 1<<17)))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maze.txt")
	require.NoError(t, os.WriteFile(path, []byte("S#E\n...\n"), 0o644))

	grid, err := LoadLayout(path)
	require.NoError(t, err)
	start, end := endpoints(t, grid)
	result, err := Run(t.Context(), grid, start, end)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{1, 0}, {1, 1}, {1, 2}, {0, 2}}, result.Path)

	_, err = LoadLayout(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
