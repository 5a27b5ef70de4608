package docker

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestIsDocker(t *testing.T) {

	dir := t.TempDir()

	env := filepath.Join(dir, ".dockerenv")
	cgroup := filepath.Join(dir, "cgroup")
	missing := filepath.Join(dir, "missing")

	assert.False(t, isDocker(missing, missing))

	require.NoError(t, os.WriteFile(cgroup, []byte("0::/user.slice/user-1000.slice\n"), 0o644))
	assert.False(t, isDocker(missing, cgroup))

	require.NoError(t, os.WriteFile(cgroup, []byte("12:cpuset:/docker/0123456789abcdef\n"), 0o644))
	assert.True(t, isDocker(missing, cgroup))

	require.NoError(t, os.WriteFile(env, []byte{}, 0o644))
	assert.True(t, isDocker(env, missing))
}
