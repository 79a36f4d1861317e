package main

import (
	"github.com/linuxautomation/autokit/cmd/autokit/cmd"
)

func main() {
	cmd.Execute()
}
