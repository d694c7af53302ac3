package link

import "github.com/golang/glog"

// Command codes.
const (
	// CmdPing responds with a single 0x00 byte.
	CmdPing byte = 0x00
	// CmdIdentify responds with the identity record.
	CmdIdentify byte = 0x01
	// CmdValueGet responds with Value.V.
	CmdValueGet byte = 0x02
	// CmdValueSet is followed by a Value and its checksum, no response.
	CmdValueSet byte = 0x82
)

// PingReply is the response to CmdPing.
const PingReply byte = 0x00

// CommandName returns a printable name for a command code.
func CommandName(cmd byte) string {
	switch cmd {
	case CmdPing:
		return "PING"
	case CmdIdentify:
		return "IDENTIFY"
	case CmdValueGet:
		return "VALUE_GET"
	case CmdValueSet:
		return "VALUE_SET"
	}
	return "UNKNOWN"
}

// HandleCommand implements CommandHandler, it is the dispatcher for
// bytes received while the Framer is idle.
func (d *Device) HandleCommand(cmd byte) {
	switch cmd {
	case CmdPing:
		v := d.Values.Ping()
		glog.V(2).Infof("PING v=%g", v.V)
		d.Transmit([]byte{PingReply})
	case CmdIdentify:
		glog.V(2).Info("IDENTIFY")
		d.Transmit(d.idBytes)
	case CmdValueGet:
		v := d.Values.Get()
		glog.V(2).Infof("VALUE_GET v=%g", v.V)
		d.Transmit(EncodeFloat(v.V))
	case CmdValueSet:
		glog.V(2).Info("VALUE_SET")
		d.Framer.StartReceive(d.rxBuf[:], CompletionFunc(d.applyValue))
	default:
		glog.V(3).Infof("ignore command 0x%02x", cmd)
	}
}

func (d *Device) applyValue(buf []byte) error {
	if err := d.Values.Apply(buf); err != nil {
		glog.V(2).Infof("VALUE_SET rejected: %v", err)
		return err
	}
	v := d.Values.Get()
	glog.V(2).Infof("VALUE_SET v=%g i=%d", v.V, v.I)
	return nil
}
