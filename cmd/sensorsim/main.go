package main

import (
	"flag"
	"log"
	"time"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l1/env"
	"github.com/robotalks/sensorlink.go/pkg/sim"
)

func init() {
	env.SetupFlags()
	sim.SetupFlags()
}

func main() {
	flag.Parse()

	conf := sim.NewConfig()
	src, err := conf.NewSource(time.Now())
	if err != nil {
		log.Fatalln(err)
	}
	port := env.NewConfig().MustOpenPort()
	defer port.Close()

	tx := sim.NewTransmitter(src, l0.NewSender(port))
	if conf.Debug {
		tx.Debug = l0.NewSender(nil).DebugPrint
	}
	loop := fx.NewLoop()
	loop.Interval = conf.Interval()
	loop.Add(tx).RunOrFail()
}
