package entity

import "time"

// InboundMessage is one decoded text message from the mesh (or a gateway
// forwarding one over HTTP). Immutable once constructed.
type InboundMessage struct {
	Sender     string
	Content    string
	ChannelIdx int
	Timestamp  time.Time
	// SNR in dB as reported by the radio, nil when the firmware revision
	// does not include it or the reading was out of the sane range.
	SNR *float64
}
