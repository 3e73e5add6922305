package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tspswarm/internal/optimization/tsp"
)

const square = "4\n0 0\n0 1\n1 1\n1 0\n"

func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), err
}

func TestRunSolve(t *testing.T) {
	out, err := runCLI(t, square, "-population", "30", "-iterations", "10", "-seed", "5", "-log-level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "(4)"), lines[0])
	assert.Equal(t, 5, strings.Count(lines[0], "->")+1, "closed tour over four cities")
}

func TestRunDeterministic(t *testing.T) {
	input := "6\n0 0\n3 1\n5 5\n1 4\n6 2\n2 2\n"
	args := []string{"-population", "20", "-iterations", "25", "-seed", "11", "-workers", "4", "-log-level", "error"}

	first, err := runCLI(t, input, args...)
	require.NoError(t, err)
	second, err := runCLI(t, input, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunVerbose(t *testing.T) {
	out, err := runCLI(t, square, "-population", "3", "-iterations", "2", "-seed", "1", "-verbose", "-log-level", "error")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "iteration 0/2 best "), "initial population comes first")
	assert.Contains(t, out, "iteration 1/2 best ")
	assert.Contains(t, out, "iteration 2/2 best ")
	assert.Equal(t, 9, strings.Count(out, "  particle "))
	assert.Contains(t, out, "  particle 2: ")
}

func TestRunPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.json")
	_, err := runCLI(t, square, "-population", "30", "-iterations", "5", "-seed", "2", "-plot", path, "-log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var plot tsp.Plot
	require.NoError(t, json.Unmarshal(data, &plot))
	assert.Len(t, plot.Cities, 4)
	require.Len(t, plot.Path, 5)
	assert.Equal(t, plot.Path[0], plot.Path[4])
	assert.Greater(t, plot.Cost, 0.0)
}

func TestRunSweep(t *testing.T) {
	dir := t.TempDir()
	grid := filepath.Join(dir, "grid.yaml")
	require.NoError(t, os.WriteFile(grid, []byte(`population: [5, 10]
iterations: [3]
c1: [0.5]
c2: [0.25, 0.75]
seed: 9
`), 0o600))

	t.Run("stdout", func(t *testing.T) {
		out, err := runCLI(t, square, "-sweep", grid, "-log-level", "error")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 6)
		assert.Equal(t, "PopulationSize,Iterations,c1,c2,BestResult,TimeElapsed", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "5,3,0.5,0.25,"), lines[1])
		assert.True(t, strings.HasPrefix(lines[5], "runs=4 "), lines[5])
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "out.csv")
		out, err := runCLI(t, square, "-sweep", grid, "-csv", path, "-log-level", "error")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "runs=4 "), out)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		records, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 5)
		assert.Equal(t, []string{"10", "3", "0.5", "0.75"}, records[4][:4])
	})
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	badGrid := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badGrid, []byte("population: [5]\nbogus: 1\n"), 0o600))

	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{"malformed input", "2\n0 0\n1 x\n", nil, "not a number"},
		{"truncated input", "3\n0 0\n", nil, "unexpected end of input"},
		{"single city", "1\n0 0\n", nil, "invalid graph"},
		{"bad population", square, []string{"-population", "0"}, "invalid population"},
		{"bad coefficient", square, []string{"-c2", "2"}, "invalid configuration"},
		{"unknown flag", square, []string{"-nope"}, "flag provided but not defined"},
		{"extra argument", square, []string{"cities.txt"}, "unexpected arguments"},
		{"missing grid", square, []string{"-sweep", filepath.Join(dir, "missing.yaml")}, "no such file"},
		{"unknown grid key", square, []string{"-sweep", badGrid}, "decode grid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.input, append(tt.args, "-log-level", "error")...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"-iterations", "5", "-log-level", "error"}, strings.NewReader(square), &stdout, &stderr)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stdout.String())
}
