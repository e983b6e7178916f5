package entity

import "time"

type SessionStatus string

const (
	StatusActive   SessionStatus = "active"
	StatusFinished SessionStatus = "finished"
)

// Session is the collaborative story state for one key. The key is either
// a mesh channel ("channel:3") or a web client ("web:<uuid>"); the two
// namespaces never collide.
type Session struct {
	Key        string          `json:"key"`
	Theme      string          `json:"theme"`
	Scene      string          `json:"scene"`
	Choices    []string        `json:"choices"`
	History    []string        `json:"history"`
	Status     SessionStatus   `json:"status"`
	Votes      map[string]bool `json:"votes,omitempty"`
	Version    uint64          `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	LastActive time.Time       `json:"last_active"`
}

func (s *Session) Active() bool {
	return s.Status == StatusActive
}

// Clone returns a deep copy so callers outside the store never alias
// store-owned slices or maps.
func (s *Session) Clone() *Session {
	c := *s
	c.Choices = append([]string(nil), s.Choices...)
	c.History = append([]string(nil), s.History...)
	if s.Votes != nil {
		c.Votes = make(map[string]bool, len(s.Votes))
		for k, v := range s.Votes {
			c.Votes[k] = v
		}
	}
	return &c
}
