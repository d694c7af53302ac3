package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/rfcomm/pkg/env"
	fx "github.com/robotalks/rfcomm/pkg/framework"
	"github.com/robotalks/rfcomm/pkg/host"
)

// CommandTimeout limits the time a shell command waits for the device.
const CommandTimeout = 2 * time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is a connected device.
type Conn struct {
	Target string
	Robot  *host.Robot

	stream io.Closer
	cancel func()
	runner *fx.Runner
}

// Close disconnects the device.
func (c *Conn) Close() error {
	c.cancel()
	err := c.stream.Close()
	if werr := c.runner.Wait(); werr != nil {
		glog.V(2).Infof("%s: %v", c.Target, werr)
	}
	return err
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Output is a command result which can be printed as text or JSON.
type Output interface {
	String() string
}

// OK is the Output of commands without result.
type OK struct{}

// String implements Output.
func (OK) String() string { return "OK" }

// MarshalJSON implements json.Marshaler.
func (OK) MarshalJSON() ([]byte, error) { return []byte(`{"ok":true}`), nil }

// DoCommand runs fn against the connected device and prints its result.
func DoCommand(c *ishell.Context, fn func(context.Context, *host.Robot) (Output, error)) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
	defer cancel()
	out, err := fn(ctx, s.Conn.Robot)
	if err != nil {
		c.Err(err)
		return err
	}
	if s.OutputJSON {
		encoded, err := json.Marshal(out)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(encoded))
		return nil
	}
	c.Println(out.String())
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect connects the device at target, a serial port or a websocket
// URL. An empty target uses the configured one.
func (s *Shell) Connect(target string) error {
	conf := s.Config
	if target != "" {
		conf = conf.WithTarget(target)
	}
	stream, err := conf.OpenLink()
	if err != nil {
		return err
	}
	conn := &Conn{Target: conf.Target(), Robot: host.NewRobot(stream), stream: stream}
	var ctx context.Context
	ctx, conn.cancel = context.WithCancel(context.Background())
	conn.runner = fx.NewRunnerWith(ctx).Go(fx.NamedRun("robot", conn.Robot))
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conn.Target))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Target() != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Target())
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Target(), err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT|URL]",
		Func: func(c *ishell.Context) {
			var target string
			if len(c.Args) > 0 {
				target = c.Args[0]
			}
			if err := ShellFrom(c).Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
