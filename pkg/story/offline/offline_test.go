package offline

import (
	"context"
	"testing"
)

// Every tree must be internally consistent: a start node, every next
// target present, choices and next keys matched, terminal nodes
// choice-free, and scene texts unique so positions can be recovered.
func TestTreeIntegrity(t *testing.T) {
	for name, tree := range baseTrees {
		t.Run(name, func(t *testing.T) {
			if _, ok := tree["start"]; !ok {
				t.Fatal("tree has no start node")
			}

			seenTexts := make(map[string]string)
			for id, n := range tree {
				if prev, dup := seenTexts[n.text]; dup {
					t.Errorf("nodes %q and %q share scene text", prev, id)
				}
				seenTexts[n.text] = id

				if len(n.choices) != len(n.next) {
					t.Errorf("node %q offers %d choices but has %d transitions", id, len(n.choices), len(n.next))
				}
				for choice, target := range n.next {
					if _, ok := tree[target]; !ok {
						t.Errorf("node %q choice %q points at missing node %q", id, choice, target)
					}
				}
			}

			terminals := 0
			for id, n := range tree {
				if len(n.choices) == 0 {
					terminals++
					if len(n.next) != 0 {
						t.Errorf("terminal node %q still has transitions", id)
					}
				}
			}
			if terminals == 0 {
				t.Error("tree has no ending")
			}
		})
	}
}

func TestEveryThemeResolvesToATree(t *testing.T) {
	for theme, base := range themeAliases {
		if _, ok := baseTrees[base]; !ok {
			t.Errorf("theme %q aliases to missing tree %q", theme, base)
		}
	}
	if !ValidTheme("fantasy") {
		t.Error("fantasy must be a valid theme")
	}
	if ValidTheme("definitely_not_a_theme") {
		t.Error("unknown theme accepted")
	}
}

func TestNextSceneWalksTheTree(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	opening, err := p.NextScene(ctx, "fantasy", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(opening.Choices) == 0 || opening.Ending {
		t.Fatalf("opening scene has no choices: %+v", opening)
	}

	next, err := p.NextScene(ctx, "fantasy", []string{opening.Text}, "1")
	if err != nil {
		t.Fatal(err)
	}
	if next.Text == opening.Text {
		t.Error("choice 1 did not advance the story")
	}
}

func TestNextSceneIsDeterministic(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	a, _ := p.NextScene(ctx, "scifi", nil, "")
	b, _ := p.NextScene(ctx, "scifi", nil, "")
	if a.Text != b.Text {
		t.Error("same inputs produced different scenes")
	}

	c1, _ := p.NextScene(ctx, "scifi", []string{a.Text}, "2")
	c2, _ := p.NextScene(ctx, "scifi", []string{b.Text}, "2")
	if c1.Text != c2.Text {
		t.Error("same (history, choice) produced different scenes")
	}
}

func TestUnknownPositionRestartsFromOpening(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	opening, _ := p.NextScene(ctx, "horror", nil, "")
	restarted, err := p.NextScene(ctx, "horror", []string{"text that is in no tree"}, "1")
	if err != nil {
		t.Fatal(err)
	}
	if restarted.Text != opening.Text {
		t.Error("unknown position should restart from the opening scene")
	}
}

func TestUnknownThemeUsesFantasy(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	fantasy, _ := p.NextScene(ctx, "fantasy", nil, "")
	fallback, err := p.NextScene(ctx, "no_such_theme", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if fallback.Text != fantasy.Text {
		t.Error("unknown theme should fall back to the fantasy tree")
	}
}
