package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_run_empty_stream_exits_zero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.raw")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.Equal(t, 0, run([]string{"4", "100:" + path}))
}

func Test_run_rejects_bad_arguments(t *testing.T) {
	require.Equal(t, 1, run([]string{"99"}))
	require.Equal(t, 1, run(nil))
}

func Test_run_rejects_missing_sample_file(t *testing.T) {
	require.Equal(t, 1, run([]string{"4", "100:/does/not/exist.raw"}))
}
