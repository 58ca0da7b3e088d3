package lifecycle

import (
	"context"
	"os"
	"os/exec"
)

// execCommand builds a host-side command for initializeCommand, run with the
// workspace as its working directory and the invoking user's environment
// inherited (initializeCommand runs before any container exists, so there is
// no remoteEnv to apply yet).
func execCommand(ctx context.Context, argv []string, workdir string) *exec.Cmd {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = workdir
	c.Env = os.Environ()
	return c
}
