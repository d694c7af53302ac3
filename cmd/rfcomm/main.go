package main

import (
	"github.com/robotalks/rfcomm/pkg/cli/sh"
	"github.com/robotalks/rfcomm/pkg/env"

	_ "github.com/robotalks/rfcomm/pkg/cli/cmds/device"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
