package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/rfcomm/pkg/bridge"
	"github.com/robotalks/rfcomm/pkg/env"
	fx "github.com/robotalks/rfcomm/pkg/framework"
	"github.com/robotalks/rfcomm/pkg/host"
	"github.com/robotalks/rfcomm/pkg/telemetry/mqtt"
)

var (
	interval = bridge.DefaultInterval
	retain   bool
)

func init() {
	env.SetupFlags()
	flag.DurationVar(&interval, "interval", interval, "Polling interval.")
	flag.BoolVar(&retain, "retain", retain, "Publish snapshots as retained messages.")
}

func main() {
	flag.Parse()
	if err := run(env.NewConfig()); err != nil {
		log.Fatalf("bridge stopped: %v", err)
	}
}

func run(conf *env.Config) error {
	stream, err := conf.OpenLink()
	if err != nil {
		return err
	}
	defer stream.Close()
	q, err := conf.ConnectQueue()
	if err != nil {
		return err
	}
	defer q.Close()

	pub := mqtt.NewPublisher(q)
	pub.Retain = retain
	robot := host.NewRobot(stream)
	b := bridge.New(conf.ID, robot, pub)
	b.Interval = interval

	r := fx.NewRunner().HandleSignals()
	return r.Go(fx.NamedRun("robot", robot), fx.NamedRun("bridge", b)).Wait()
}
