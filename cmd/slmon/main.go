package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/robotalks/sensorlink.go/pkg/cli/sh"
	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/sensorlink.go/pkg/l1/env"
	"github.com/robotalks/sensorlink.go/pkg/l1/link"
)

var (
	mqttURL = "mqtt://localhost:1883/sensors/"
	filter  = "+"
)

func init() {
	if val := os.Getenv(env.EnvMQTTURL); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&filter, "filter", filter, "Channel topic filter.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	conf.MQTTURL = mqttURL
	q, err := conf.NewQueue("mon")
	if err != nil {
		log.Fatalln(err)
	}
	mqtt.Subscribe(q, filter, l0.HandleReadingFunc(func(ctx context.Context, r frame.Reading) error {
		log.Println(sh.FormatReading(r, conf.Channels.ChannelName(r.ID)))
		return nil
	}), link.CommandTopic)
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
