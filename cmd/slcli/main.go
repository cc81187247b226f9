package main

import (
	"github.com/robotalks/sensorlink.go/pkg/cli/sh"
	"github.com/robotalks/sensorlink.go/pkg/l1/env"

	_ "github.com/robotalks/sensorlink.go/pkg/cli/cmds/frame"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
