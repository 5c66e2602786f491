package sandbox

import "os"

const dockerEnvPath = "/.dockerenv"

// ContainerLookup answers whether the runner itself executes inside a
// container. When it does, the output directory is shared with the sandbox
// through that container's volumes instead of a fresh bind mount; this
// changes only the mount arguments, never the run semantics.
type ContainerLookup interface {
	// Current returns the ambient container identifier, or "" when running
	// directly on the host.
	Current() string
}

type hostContainerLookup struct {
	dockerEnv string
}

func NewContainerLookup() ContainerLookup {
	return &hostContainerLookup{dockerEnv: dockerEnvPath}
}

func (l *hostContainerLookup) Current() string {
	if _, err := os.Stat(l.dockerEnv); err != nil {
		return ""
	}
	// inside a container the hostname is the container id
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
