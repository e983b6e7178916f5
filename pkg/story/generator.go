// Package story defines the pluggable scene generator: remote language
// model backends and a deterministic offline tree, combined through a
// prioritized fallback chain.
package story

import (
	"context"
	"errors"
	"strings"
)

// ErrBackendUnavailable is what every remote backend returns in place of
// transport details, so callers can fall through the chain.
var ErrBackendUnavailable = errors.New("story backend unavailable")

// EndMarker in scene text marks the story's final scene.
const EndMarker = "THE END"

// Scene is one step of a story: narration, the choices offered next, and
// whether the story concludes here.
type Scene struct {
	Text    string
	Choices []string
	Ending  bool
}

// Generator produces the next scene for a theme given the scene history
// and the choice the players just made. An empty choice requests the
// opening scene.
type Generator interface {
	Name() string
	NextScene(ctx context.Context, theme string, history []string, choice string) (*Scene, error)
}

// ParseScene interprets raw model output as a scene: narration followed
// by a "1:... 2:... 3:..." choice line. Output without choices is treated
// as an ending, as is anything carrying the end marker.
func ParseScene(raw string) *Scene {
	raw = strings.TrimSpace(raw)
	scene := &Scene{Ending: strings.Contains(raw, EndMarker)}

	idx := strings.Index(raw, "1:")
	if idx < 0 {
		scene.Text = raw
		scene.Ending = true
		return scene
	}

	scene.Text = strings.TrimSpace(raw[:idx])
	scene.Choices = parseChoices(raw[idx:])
	if len(scene.Choices) < 2 {
		// A scene with fewer than two options is not a real branch.
		scene.Text = raw
		scene.Choices = nil
		scene.Ending = true
	}
	return scene
}

func parseChoices(s string) []string {
	var choices []string
	markers := []string{"1:", "2:", "3:"}
	for i, marker := range markers {
		start := strings.Index(s, marker)
		if start < 0 {
			break
		}
		end := len(s)
		if i+1 < len(markers) {
			if next := strings.Index(s, markers[i+1]); next > start {
				end = next
			}
		}
		choice := strings.TrimSpace(s[start+len(marker) : end])
		if choice == "" {
			break
		}
		choices = append(choices, choice)
	}
	return choices
}

// FormatScene renders a scene the way it goes out over the radio: the
// narration, then a newline, then the numbered choices on one line.
func FormatScene(s *Scene) string {
	if len(s.Choices) == 0 {
		return s.Text
	}
	var b strings.Builder
	b.WriteString(s.Text)
	b.WriteByte('\n')
	for i, c := range s.Choices {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(rune('1' + i)))
		b.WriteByte(':')
		b.WriteString(c)
	}
	return b.String()
}
