// Package env provides the common configuration of the rfcomm commands.
package env

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/rfcomm/pkg/telemetry/mqtt"
	"github.com/robotalks/rfcomm/pkg/transport/serialport"
	"github.com/robotalks/rfcomm/pkg/transport/wslink"
)

// ErrNoLink indicates neither a serial port nor a link URL is configured.
var ErrNoLink = errors.New("serial port or link URL must be specified")

// ConnectTimeout limits the time waiting for the MQTT broker.
const ConnectTimeout = 5 * time.Second

// Config provides common options to reach the device and the broker.
type Config struct {
	// Port is the serial device of the link, e.g. /dev/ttyUSB0.
	Port string
	// URL is a websocket link endpoint used when Port is empty,
	// e.g. ws://host:8038/link.
	URL string
	// MQTTBrokerURL specifies the MQTT broker for telemetry.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// ID identifies the device in telemetry topics.
	ID string
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/rfcomm/",
}

func init() {
	if val := os.Getenv("RFCOMM_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("RFCOMM_URL"); val != "" {
		defaultConfig.URL = val
	}
	if val := os.Getenv("RFCOMM_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	defaultConfig.ID = os.Getenv("RFCOMM_ID")
	if defaultConfig.ID == "" {
		defaultConfig.ID = MachineID()
	}
}

// MachineID retrieves an ID unique to the machine and this application.
// The hostname is used when the machine ID isn't available.
func MachineID() string {
	id, err := machineid.ProtectedID("rfcomm")
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine id unavailable: %v", err)
	host, _ := os.Hostname()
	return host
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the link.")
	flag.StringVar(&defaultConfig.URL, "url", defaultConfig.URL, "Websocket URL of the link, used without -port.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID in telemetry topics.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// WithTarget returns a copy of the config connecting to target, which
// is either a websocket URL or a serial port.
func (c *Config) WithTarget(target string) *Config {
	conf := *c
	if strings.Contains(target, "://") {
		conf.Port, conf.URL = "", target
	} else {
		conf.Port = target
	}
	return &conf
}

// Target returns the configured link endpoint for display.
func (c *Config) Target() string {
	if c.Port != "" {
		return c.Port
	}
	return c.URL
}

// OpenLink opens the link stream.
func (c *Config) OpenLink() (io.ReadWriteCloser, error) {
	switch {
	case c.Port != "":
		return serialport.Open(c.Port)
	case c.URL != "":
		conn, err := wslink.Dial(c.URL)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %v", c.URL, err)
		}
		return conn, nil
	}
	return nil, ErrNoLink
}

// ConnectQueue creates and connects the telemetry queue.
func (c *Config) ConnectQueue() (*mqtt.Queue, error) {
	if c.MQTTBrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL must be specified")
	}
	q, err := mqtt.NewQueueFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT broker URL: %v", err)
	}
	token := q.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		return nil, fmt.Errorf("connect MQTT broker %s timeout", c.MQTTBrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect MQTT broker error: %v", err)
	}
	return q, nil
}

// MustConnectQueue connects the telemetry queue and fails on error.
func (c *Config) MustConnectQueue() *mqtt.Queue {
	q, err := c.ConnectQueue()
	if err != nil {
		log.Fatalln(err)
	}
	return q
}
