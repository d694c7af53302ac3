// Package device provides shell commands for the device command set.
package device

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rfcomm/pkg/cli/sh"
	"github.com/robotalks/rfcomm/pkg/host"
	"github.com/robotalks/rfcomm/pkg/link"
)

// Pong is the output of ping.
type Pong struct {
	RoundTrip float64 `json:"rtt_ms"`
}

func (p *Pong) String() string {
	return fmt.Sprintf("PONG %.1fms", p.RoundTrip)
}

// Identity is the output of id.
type Identity struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

func (id *Identity) String() string {
	return fmt.Sprintf("%s %s %s", id.Name, id.Date, id.Time)
}

// Value is the output of get.
type Value struct {
	Value float32 `json:"value"`
}

func (v *Value) String() string {
	return strconv.FormatFloat(float64(v.Value), 'g', -1, 32)
}

// ParseValue parses the arguments of set: V [I].
// I defaults to the reset increment.
func ParseValue(args []string) (link.Value, error) {
	v := link.Value{I: link.DefaultValue.I}
	if len(args) < 1 {
		return v, fmt.Errorf("V required")
	}
	f, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return v, fmt.Errorf("Invalid V: %v", err)
	}
	v.V = float32(f)
	if len(args) > 1 {
		i, err := strconv.ParseInt(args[1], 0, 32)
		if err != nil {
			return v, fmt.Errorf("Invalid I: %v", err)
		}
		v.I = int32(i)
	}
	return v, nil
}

var (
	// PingCmd exposes PING.
	PingCmd = ishell.Cmd{
		Name:    "ping",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, func(ctx context.Context, r *host.Robot) (sh.Output, error) {
				rtt, err := r.Ping(ctx)
				if err != nil {
					return nil, err
				}
				return &Pong{RoundTrip: float64(rtt) / float64(time.Millisecond)}, nil
			})
		}),
	}

	// IdentifyCmd exposes IDENTIFY.
	IdentifyCmd = ishell.Cmd{
		Name:    "id",
		Aliases: []string{"identify"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, func(ctx context.Context, r *host.Robot) (sh.Output, error) {
				id, err := r.Identify(ctx)
				if err != nil {
					return nil, err
				}
				return &Identity{Name: id.Name, Date: id.Date, Time: id.Time}, nil
			})
		}),
	}

	// ValueGetCmd exposes VALUE_GET.
	ValueGetCmd = ishell.Cmd{
		Name:    "get",
		Aliases: []string{"g"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, func(ctx context.Context, r *host.Robot) (sh.Output, error) {
				v, err := r.Value(ctx)
				if err != nil {
					return nil, err
				}
				return &Value{Value: v}, nil
			})
		}),
	}

	// ValueSetCmd exposes VALUE_SET.
	ValueSetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "V [I]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			v, err := ParseValue(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func(ctx context.Context, r *host.Robot) (sh.Output, error) {
				return sh.OK{}, r.SetValue(ctx, v)
			})
		}),
	}
)

func init() {
	sh.AddCmds(
		&PingCmd,
		&IdentifyCmd,
		&ValueGetCmd,
		&ValueSetCmd,
	)
}
