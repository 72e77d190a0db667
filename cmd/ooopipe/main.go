// Command ooopipe is the out-of-order pipeline simulator's CLI: it
// assembles a program, runs it to completion on the configured backend,
// and reports the resulting architectural state and performance counters.
package main

import "github.com/sarchlab/ooopipe/cmd/ooopipe/cmd"

func main() {
	cmd.Execute()
}
