package entity

import "time"

type SessionEventKind string

const (
	EventSessionExpired  SessionEventKind = "expired"
	EventSessionReset    SessionEventKind = "reset"
	EventSessionFinished SessionEventKind = "finished"
)

// SessionEvent is published on the internal bus when the store changes a
// session's lifecycle outside a player command (sweeps) or terminally
// (finish). ChannelIdx is -1 for non-mesh sessions.
type SessionEvent struct {
	Kind       SessionEventKind `json:"kind"`
	Key        string           `json:"key"`
	ChannelIdx int              `json:"channel_idx"`
	Theme      string           `json:"theme"`
	At         time.Time        `json:"at"`
}
