package main

import (
	"flag"
	"log"

	"github.com/robotalks/rfcomm/pkg/env"
	fx "github.com/robotalks/rfcomm/pkg/framework"
	"github.com/robotalks/rfcomm/pkg/telemetry"
	"github.com/robotalks/rfcomm/pkg/telemetry/mqtt"
)

var device = "+"

func init() {
	env.SetupFlags()
	flag.StringVar(&device, "device", device, "Device ID to monitor, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q := env.NewConfig().MustConnectQueue()
	defer q.Close()

	mqtt.Subscribe(q, device, func(msg telemetry.Message) {
		switch m := msg.(type) {
		case *telemetry.Snapshot:
			log.Printf("%s: [%s] value=%g rtt=%s failures=%d",
				m.DeviceID, m.Identity, m.Value, m.RoundTrip, m.Failures)
		case *telemetry.Fault:
			log.Printf("fault code=%d %s", m.Code, m)
		}
	})
	<-fx.NewRunner().HandleSignals().Context.Done()
}
