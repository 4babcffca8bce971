// Command vdtogen generates proxy sources for versioned models and prints
// version diagnostics.
//
// Usage:
//
//	vdtogen proxy --decl models/v1/v1_0/user.proxy.yaml
//	vdtogen proxy --decl user.proxy.yaml --out ./gen/user_proxy_gen.go --dry-run
//	vdtogen versions sort 1.10 1.2 v1_9 2.0.alpha.1
//	vdtogen versions floor 1.5 1.0 1.2 2.0
//
// Settings come from ./.vdtogen.yaml (or --config), then VDTOGEN_* variables,
// then flags:
//
//	log-level: info     # debug selects a development logger
//	out-suffix: _gen.go # appended to "<type>_proxy" when a declaration has no output
//	no-color: false
package main

import (
	"os"

	"github.com/spf13/afero"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code.
func run(args []string) int {
	a := newApp(afero.NewOsFs())
	root := newRootCmd(a)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}
