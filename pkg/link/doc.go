// Package link implements the device side of the rfcomm serial link.
package link

// The protocol is communicated between a host (e.g. a phone over a bluetooth
// rfcomm bridge, or a PC on a USB UART) and an embedded controller. Every
// frame is a single command byte, optionally followed
// by a fixed size payload and a 2-byte checksum. There is no escaping, no length
// prefix and no acknowledgement. The only defence against a lossy link is the
// receive timeout: a payload must complete within RxTimeout or the device
// drops it and goes back to interpreting bytes as commands.
//
// The device is driven by a cooperative tick (Device.Tick) which services one
// transmit byte, one receive byte and the timers. Device, Framer and Monitor
// never block and hold no locks, a Device must be owned by a single goroutine.
// StreamTransport adapts blocking streams to the non-blocking Transport,
// writes happen on a background goroutine.
//
// Producer: host
// Consumer: device
