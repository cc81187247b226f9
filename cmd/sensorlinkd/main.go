package main

import (
	"flag"
	"log"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	"github.com/robotalks/sensorlink.go/pkg/l1/env"
	"github.com/robotalks/sensorlink.go/pkg/l1/link"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	l, err := link.New(env.NewConfig())
	if err != nil {
		log.Fatalln(err)
	}
	defer l.Close()
	if err := fx.NewRunner().HandleSignals().Run(l); err != nil {
		l.Close()
		log.Fatalln(err)
	}
}
