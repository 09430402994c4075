// Command engine runs the HLP log parsing and policy evaluation
// pipeline: an orchestrator fanning admin requests out to a pool of
// workers, each owning one router and one tester.
package main

import "github.com/engine-core/engine/internal/cmd"

func main() {
	cmd.Execute()
}
