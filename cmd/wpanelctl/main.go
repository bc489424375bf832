// The wpanelctl command inspects panels on a panel daemon and evaluates
// grid layouts locally.
package main

import "github.com/wrale/wrale-panels/internal/wpanelctl/cmd"

func main() {
	cmd.Execute()
}
