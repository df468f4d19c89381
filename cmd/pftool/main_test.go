package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMD = "../../testdata/test_md.pf"
	decon  = "../../testdata/deconvolution.pf"
	over   = "../../testdata/overlay.pf"
	simple = "../../testdata/simple.txt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	err := app.Run(append([]string{"pftool"}, args...))
	return stdout.String(), err
}

func TestGet(t *testing.T) {
	out, err := run(t, "get", testMD, "simple_real_parameter")
	require.NoError(t, err)
	assert.Equal(t, "3.14\n", out)

	out, err = run(t, "get", "--type", "long", "--branch", "test_nested_tag/deeper", testMD, "depth")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, "get", testMD, "simple_string_parameter")
	require.NoError(t, err)
	assert.Equal(t, "\"quoted string value\"\n", out)
}

func TestGet_LookupFaultsExitWithTwo(t *testing.T) {
	_, err := run(t, "get", testMD, "no_such_key")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "get", "--type", "long", testMD, "simple_real_parameter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requested long, actual entry has type double")
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "get", "--branch", "missing", testMD, "x")
	assert.Equal(t, 2, exitCode(err))
}

func TestStructuralFaultsExitWithOne(t *testing.T) {
	_, err := run(t, "dump", "../../testdata/nope.pf")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	_, err = run(t, "get", testMD)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestTbl(t *testing.T) {
	out, err := run(t, "tbl", testMD, "mdlist")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", out)

	out, err = run(t, "tbl", "--branch", "VectorTaper", decon, "wavelet_taper_vector")
	require.NoError(t, err)
	assert.Equal(t, "0.0\n0.5\n1.0\n", out)
}

func TestDump(t *testing.T) {
	out, err := run(t, "dump", testMD)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "simple_real_parameter double 3.14\n"), out)
	assert.Contains(t, out, "Tbl mdlist\n\ta\n\tb\n\tc\nEndtbl\n")
	assert.Contains(t, out, "Arr test_nested_tag\n")
}

func TestMerge(t *testing.T) {
	out, err := run(t, "merge", "--flat", simple, testMD)
	require.NoError(t, err)
	assert.Contains(t, out, "double_val\tdouble\t2.5\n")
	assert.Contains(t, out, "long_val\tlong\t10\n")
	assert.Contains(t, out, "station\tstring\tANMO\n")
	assert.NotContains(t, out, "mdlist")
}

func TestLayer(t *testing.T) {
	out, err := run(t, "layer", "--table-strategy", "unique", decon, over)
	require.NoError(t, err)
	assert.Contains(t, out, "damping_factor double 0.1\n")
	assert.Contains(t, out, "Tbl save_metadata\n\tsta string\n\tchan string\n\tsamprate double\n\tnpts long\nEndtbl\n")

	_, err = run(t, "layer", "--table-strategy", "bogus", decon, over)
	assert.Error(t, err)
}

func TestLayer_StrategyFromEnv(t *testing.T) {
	t.Setenv("PFTOOL_TABLE_STRATEGY", "append")
	out, err := run(t, "layer", decon, over)
	require.NoError(t, err)
	assert.Contains(t, out, "\tsamprate double\n\tchan string\n\tnpts long\nEndtbl\n")
}

func TestExport(t *testing.T) {
	out, err := run(t, "export", testMD)
	require.NoError(t, err)
	assert.Contains(t, out, "simple_real_parameter: 3.14\n")
	assert.Contains(t, out, "mdlist:\n")
	assert.Contains(t, out, "- a\n")
	assert.Contains(t, out, "test_nested_tag:\n  test_double: 7.0\n")

	out, err = run(t, "export", "--format", "text", testMD)
	require.NoError(t, err)
	assert.Contains(t, out, "Endarr\n")

	_, err = run(t, "export", "--format", "json", testMD)
	assert.Error(t, err)
}

func TestMan(t *testing.T) {
	out, err := run(t, "man")
	require.NoError(t, err)
	assert.Contains(t, out, "pftool")
}
