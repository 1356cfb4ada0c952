// The main package for the stplive executable.
package main

import (
	"github.com/stplive/stp-live/cmd"
)

func main() {
	cmd.Execute()
}
