package story

import (
	"context"
	"errors"
	"testing"

	"mesh-adventure-be/internal/pkg/logger"
)

func TestParseScene(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantText    string
		wantChoices int
		wantEnding  bool
	}{
		{
			name:        "full scene",
			raw:         "You stand at a crossroads.\n1:Go left 2:Go right 3:Turn back",
			wantText:    "You stand at a crossroads.",
			wantChoices: 3,
		},
		{
			name:        "two choices",
			raw:         "A door blocks the way. 1:Open it 2:Knock",
			wantText:    "A door blocks the way.",
			wantChoices: 2,
		},
		{
			name:       "no choices is an ending",
			raw:        "The dragon falls. Peace returns to the realm.",
			wantText:   "The dragon falls. Peace returns to the realm.",
			wantEnding: true,
		},
		{
			name:       "end marker",
			raw:        "You live happily ever after. THE END",
			wantEnding: true,
		},
		{
			name:       "single choice collapses to ending",
			raw:        "Almost there. 1:Continue",
			wantEnding: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := ParseScene(tt.raw)
			if tt.wantText != "" && scene.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", scene.Text, tt.wantText)
			}
			if len(scene.Choices) != tt.wantChoices {
				t.Errorf("got %d choices, want %d", len(scene.Choices), tt.wantChoices)
			}
			if scene.Ending != tt.wantEnding {
				t.Errorf("Ending = %v, want %v", scene.Ending, tt.wantEnding)
			}
		})
	}
}

func TestFormatScene(t *testing.T) {
	got := FormatScene(&Scene{Text: "A fork in the road.", Choices: []string{"left", "right", "camp"}})
	want := "A fork in the road.\n1:left 2:right 3:camp"
	if got != want {
		t.Errorf("FormatScene = %q, want %q", got, want)
	}

	if got := FormatScene(&Scene{Text: "THE END", Ending: true}); got != "THE END" {
		t.Errorf("ending scene = %q", got)
	}
}

type fixedGenerator struct {
	name  string
	scene *Scene
	err   error
	calls int
}

func (g *fixedGenerator) Name() string { return g.name }

func (g *fixedGenerator) NextScene(context.Context, string, []string, string) (*Scene, error) {
	g.calls++
	return g.scene, g.err
}

func TestChainFallsThroughToFirstSuccess(t *testing.T) {
	broken := &fixedGenerator{name: "remote", err: ErrBackendUnavailable}
	working := &fixedGenerator{name: "offline", scene: &Scene{Text: "ok", Choices: []string{"a", "b"}}}
	skipped := &fixedGenerator{name: "never", scene: &Scene{Text: "no"}}

	chain := NewChain(logger.NewNopLogger(), broken, working, skipped)
	scene, err := chain.NextScene(context.Background(), "fantasy", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if scene.Text != "ok" {
		t.Errorf("scene = %q, want the second backend's output", scene.Text)
	}
	if broken.calls != 1 || working.calls != 1 || skipped.calls != 0 {
		t.Errorf("call counts = %d/%d/%d, want 1/1/0", broken.calls, working.calls, skipped.calls)
	}
}

func TestChainSurfacesLastError(t *testing.T) {
	chain := NewChain(logger.NewNopLogger(),
		&fixedGenerator{name: "a", err: ErrBackendUnavailable},
		&fixedGenerator{name: "b", err: ErrBackendUnavailable},
	)
	_, err := chain.NextScene(context.Background(), "fantasy", nil, "")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("got %v, want ErrBackendUnavailable", err)
	}
}
