// Package docker reports whether the current process is running inside a container.
package docker

import (
	"bytes"
	"os"
)

const (
	// DOCKERENV is the marker file Docker creates at the root of every container.
	DOCKERENV string = "/.dockerenv"
	// CGROUP is the cgroup file of the current process.
	CGROUP string = "/proc/self/cgroup"
)

// IsDocker returns true if the current process appears to be running in a Docker container.
func IsDocker() bool {
	return isDocker(DOCKERENV, CGROUP)
}

func isDocker(env_path string, cgroup_path string) bool {

	_, err := os.Stat(env_path)

	if err == nil {
		return true
	}

	body, err := os.ReadFile(cgroup_path)

	if err != nil {
		return false
	}

	return bytes.Contains(body, []byte("docker"))
}
