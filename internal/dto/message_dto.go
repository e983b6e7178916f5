package dto

// MessageRequest is the gateway→server forwarding payload: one decoded
// radio message, verbatim.
type MessageRequest struct {
	Sender     string  `json:"sender" validate:"required"`
	Content    string  `json:"content" validate:"required"`
	ChannelIdx int     `json:"channel_idx" validate:"min=0,max=7"`
	Timestamp  float64 `json:"timestamp"`
	SNR        *float64 `json:"snr,omitempty"`
}

// MessageResponse carries the reply text to transmit, or null when the
// message needed no reply (unknown command, duplicate, rate limited).
type MessageResponse struct {
	Response *string `json:"response"`
}

// BroadcastResponse is one queued bot-initiated announcement, polled by
// the gateway. Message is empty when the queue is drained.
type BroadcastResponse struct {
	Message    string `json:"message"`
	ChannelIdx int    `json:"channel_idx"`
}
