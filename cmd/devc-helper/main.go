// Package main provides devc-helper, the single binary installed into a
// container twice — as docker-credential-devc and as git-credential-devc —
// that dispatches on its own invoked name to speak the docker-credential
// or git-credential ABI over the credential proxy socket.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/s-retlaw/devc/internal/credshim"
	"github.com/s-retlaw/devc/internal/creds"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "devc-helper: missing operation argument")
		os.Exit(1)
	}
	arg := os.Args[1]

	var kind creds.Kind
	var op creds.Op
	var ok bool
	switch filepath.Base(os.Args[0]) {
	case "git-credential-devc":
		kind = creds.KindGit
		op, ok = credshim.GitOp(arg)
	default:
		kind = creds.KindDocker
		op, ok = credshim.DockerOp(arg)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "devc-helper: unsupported operation %q\n", arg)
		os.Exit(1)
	}

	if err := credshim.Run(kind, op, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "devc-helper: %v\n", err)
		os.Exit(1)
	}
}
