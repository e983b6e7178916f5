package meshcore

import "time"

// Message is one inbound channel text message as delivered by the link.
type Message struct {
	Sender     string
	Content    string
	ChannelIdx int
	Timestamp  time.Time
	SNR        *float64
}
