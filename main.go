// file: main.go
// version: 2.0.0
// guid: 5e0c7a92-d4b1-4f38-86a5-c29f1e3b07d6

package main

import (
	"fmt"
	"os"

	"github.com/hvtag/hvtag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
