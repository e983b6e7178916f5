package dto

// StartAdventureRequest starts (or resumes) a web session. SessionId is
// optional; omitting it allocates a fresh one.
type StartAdventureRequest struct {
	Theme     string `json:"theme"`
	SessionId string `json:"session_id"`
}

type StartAdventureResponse struct {
	SessionId string   `json:"session_id"`
	Story     string   `json:"story"`
	Choices   []string `json:"choices"`
	Status    string   `json:"status"`
}

type ChoiceRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Choice    string `json:"choice" validate:"required,oneof=1 2 3"`
}

type ChoiceResponse struct {
	Story   string   `json:"story"`
	Choices []string `json:"choices"`
	Status  string   `json:"status"`
}

type StatusResponse struct {
	Active        bool   `json:"active"`
	Status        string `json:"status"`
	Theme         string `json:"theme"`
	HistoryLength int    `json:"history_length"`
}

type QuitRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type QuitResponse struct {
	Ended bool `json:"ended"`
}

type ThemesResponse struct {
	Themes []string `json:"themes"`
}
