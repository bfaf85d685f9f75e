package cli

import (
	"context"
)

// Execute runs the flowtower command tree with args (without the program
// name) and returns the first command error.
//
// Example:
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.Execute(ctx, os.Args[1:]...); err != nil {
//	        os.Exit(1)
//	    }
//	}
func (c *CLI) Execute(ctx context.Context, args ...string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(c.Out)
	return root.ExecuteContext(ctx)
}
