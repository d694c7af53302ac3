package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rfcomm/pkg/env"
	fx "github.com/robotalks/rfcomm/pkg/framework"
	"github.com/robotalks/rfcomm/pkg/link"
	"github.com/robotalks/rfcomm/pkg/telemetry"
	"github.com/robotalks/rfcomm/pkg/telemetry/mqtt"
	"github.com/robotalks/rfcomm/pkg/transport/serialport"
	"github.com/robotalks/rfcomm/pkg/transport/wslink"
)

var (
	listenAddr    string
	tickInterval  = time.Millisecond
	publishFaults bool
)

func init() {
	env.SetupFlags()
	flag.StringVar(&listenAddr, "listen", listenAddr, "Serve the link over websocket on this address instead of -port.")
	flag.DurationVar(&tickInterval, "tick", tickInterval, "Device tick interval.")
	flag.BoolVar(&publishFaults, "publish-faults", publishFaults, "Publish receive faults to MQTT.")
}

func main() {
	flag.Parse()
	ctx := fx.NewRunner().HandleSignals().Context
	if err := run(ctx, env.NewConfig()); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, conf *env.Config) error {
	transport := link.NewStreamTransport(nil)
	loop := fx.NewLoopWithInterval(tickInterval)
	switch {
	case listenAddr != "":
		loop.AddRunnable(wslink.NewServer(listenAddr, transport))
	case conf.Port != "":
		port, err := serialport.Open(conf.Port)
		if err != nil {
			return err
		}
		transport.Attach(port)
	default:
		return errors.New("either -port or -listen is required")
	}

	led := link.LEDFunc(func(on bool) {
		glog.V(4).Infof("LED %v", on)
	})
	dev := link.NewDevice(transport, link.NewSystemClock(), led)
	glog.Infof("device %s: %s", conf.ID, dev.Identity)

	if publishFaults {
		q, err := conf.ConnectQueue()
		if err != nil {
			return err
		}
		defer q.Close()
		fwd := telemetry.NewForwarder(mqtt.NewPublisher(q), 0)
		loop.AddRunnable(fwd)
		dev.Faults = link.HandleFaultFunc(func(f link.Fault) {
			if err := fwd.Publish(telemetry.NewFault(conf.ID, f, time.Now())); err != nil {
				glog.Warningf("drop fault: %v", err)
			}
		})
	}

	return loop.Add(dev).Run(ctx)
}
