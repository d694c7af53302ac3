// Package host implements the host end of the link.
//
// Requests are queued in FIFO order and sent one at a time: the device
// has no sequence numbers, a response is matched to the request in
// flight purely by its expected size.
//
//   Client: request queue, response assembly and timeout supervision
//   Robot: blocking API over Client for the device command set
package host
