package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/hupe1980/tesseract"
	"github.com/hupe1980/tesseract/dem"
	"github.com/hupe1980/tesseract/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDecodeCmd(t *testing.T) {
	dir := t.TempDir()
	demPath := writeTemp(t, dir, "model.dem", "error(0.1) D0 L0\nerror(0.1) D1\n")
	inPath := writeTemp(t, dir, "shots.01", "101\n010\n111\n")
	outPath := filepath.Join(dir, "predictions.01")

	_, stderr, err := run(t, "decode", "--dem", demPath, "--in", inPath, "--out", outPath, "--threads", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "decoded 3 shots")
	assert.Contains(t, stderr, "logical errors: 0 of 3")

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "1\n0\n1\n", string(got))
}

func TestDecodeCmd_Stdout(t *testing.T) {
	dir := t.TempDir()
	demPath := writeTemp(t, dir, "model.dem", "error(0.1) D0 L0\nerror(0.1) D1\ndetector D2\n")
	inPath := writeTemp(t, dir, "shots.dets", "shot D0\nshot\nshot D2\n")

	stdout, stderr, err := run(t, "decode", "--dem", demPath, "--in", inPath)
	require.NoError(t, err)
	// Nothing explains D2, so that shot fails and is written as no flips.
	assert.Equal(t, "1\n0\n0\n", stdout)
	assert.Contains(t, stderr, "(1 failed)")
}

func TestDecodeCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	demPath := writeTemp(t, dir, "model.dem", "error(0.1) D0 L0\n")
	inPath := writeTemp(t, dir, "shots.01", "1\n")

	_, _, err := run(t, "decode", "--in", inPath)
	assert.ErrorContains(t, err, "--dem is required")

	_, _, err = run(t, "decode", "--dem", demPath)
	assert.ErrorContains(t, err, "--in is required")

	_, _, err = run(t, "decode", "--dem", demPath, "--in", inPath, "--threads", "0")
	assert.ErrorContains(t, err, "threads")

	_, _, err = run(t, "decode", "--dem", demPath, "--in", inPath, "--log-format", "xml")
	assert.ErrorContains(t, err, "--log-format")

	_, _, err = run(t, "decode", "--dem", filepath.Join(dir, "missing.dem"), "--in", inPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSampleCmd(t *testing.T) {
	dir := t.TempDir()
	demPath := writeTemp(t, dir, "rep.dem", testutil.RepetitionCodeDEM(5, 3, 0.02))
	errorsPath := filepath.Join(dir, "errors.csv")
	detcostPath := filepath.Join(dir, "detcost.csv")

	stdout, _, err := run(t, "sample",
		"--dem", demPath,
		"--sample-num-shots", "200",
		"--sample-seed", "3",
		"--threads", "4",
		"--num-det-orders", "2",
		"--stats-errors-out", errorsPath,
		"--stats-detcost-out", detcostPath,
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "shots: 200")
	assert.Contains(t, stdout, "logical error rate:")

	csv, err := os.ReadFile(errorsPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csv), "detector_index,error_index,count"))

	csv, err = os.ReadFile(detcostPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csv), "detector_index,detcost,count"))

	again, _, err := run(t, "sample", "--dem", demPath, "--sample-num-shots", "200", "--sample-seed", "3", "--num-det-orders", "2", "--threads", "1")
	require.NoError(t, err)
	rate := func(s string) string {
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "logical errors:") {
				return line
			}
		}
		return ""
	}
	assert.Equal(t, rate(stdout), rate(again))

	_, _, err = run(t, "sample", "--dem", demPath)
	assert.ErrorContains(t, err, "--sample-num-shots")
}

func TestSampleCmd_DemOutLowNoise(t *testing.T) {
	dir := t.TempDir()
	text := testutil.RepetitionCodeDEM(9, 5, 0.001)
	demPath := writeTemp(t, dir, "rep.dem", text)
	demOut := filepath.Join(dir, "refit.dem")

	_, _, err := run(t, "sample",
		"--dem", demPath,
		"--sample-num-shots", "500",
		"--sample-seed", "11",
		"--dem-out", demOut,
	)
	require.NoError(t, err)

	orig, err := dem.Compile(text)
	require.NoError(t, err)
	data, err := os.ReadFile(demOut)
	require.NoError(t, err)
	refit, err := dem.Compile(string(data))
	require.NoError(t, err)
	require.Equal(t, orig.NumMechanisms(), refit.NumMechanisms())

	kept := 0
	for i := range orig.Mechanisms {
		if refit.Mechanisms[i].Probability == orig.Mechanisms[i].Probability {
			kept++
		}
	}
	assert.Positive(t, kept)
}

func TestSampleCmd_Config(t *testing.T) {
	dir := t.TempDir()
	demPath := writeTemp(t, dir, "rep.dem", testutil.RepetitionCodeDEM(3, 2, 0.05))
	cfgPath := writeTemp(t, dir, "decoder.yaml", "sample_num_shots: 20\nthreads: 2\nschedule: per-shot\n")

	stdout, _, err := run(t, "sample", "--dem", demPath, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "shots: 20")

	bad := writeTemp(t, dir, "bad.yaml", "unknown_key: 1\n")
	_, _, err = run(t, "sample", "--dem", demPath, "--config", bad)
	assert.Error(t, err)
}

func TestDemStatsCmd(t *testing.T) {
	dir := t.TempDir()
	demPath := writeTemp(t, dir, "model.dem", "error(0.1) D0\nerror(0.1) D1\nerror(0.001) D0 D1\nerror(0.1) D0\n")

	stdout, _, err := run(t, "dem-stats", "--dem", demPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "detectors: 2")
	assert.Contains(t, stdout, "coordinates: false")
	assert.Contains(t, stdout, "1 of 3 errors are redundant")

	stdout, _, err = run(t, "dem-stats", "--dem", demPath, "--no-merge-errors")
	require.NoError(t, err)
	assert.Contains(t, stdout, "of 4 errors are redundant")

	coordPath := writeTemp(t, dir, "coords.dem", "error(0.1) D0 D1\ndetector(1, 2) D0\n")
	stdout, _, err = run(t, "dem-stats", "--dem", coordPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "coordinates: true")
}

func TestRootCmd_FlagDefaultsMatchConfig(t *testing.T) {
	cfg := tesseract.DefaultConfig()
	pf := newRootCmd().PersistentFlags()

	assert.Equal(t, strconv.Itoa(cfg.PQLimit), pf.Lookup("pqlimit").DefValue)
	assert.Equal(t, strconv.Itoa(cfg.NumDetOrders), pf.Lookup("num-det-orders").DefValue)
	assert.Equal(t, string(cfg.DetOrder), pf.Lookup("det-order").DefValue)
	assert.Equal(t, strconv.Itoa(cfg.Threads), pf.Lookup("threads").DefValue)
	assert.Equal(t, string(cfg.Schedule), pf.Lookup("schedule").DefValue)

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "(default 200000)")
}
