// Package offline is the terminal fallback of the story chain: fixed
// branching trees per theme, deterministic given the history and choice,
// and incapable of failing.
package offline

import (
	"context"
	"sort"

	"mesh-adventure-be/pkg/story"
)

type Provider struct {
	// textIndex maps scene text back to its node id per base tree, so the
	// current position can be recovered from the session history alone.
	textIndex map[string]map[string]string
}

var _ story.Generator = (*Provider)(nil)

func NewProvider() *Provider {
	idx := make(map[string]map[string]string, len(baseTrees))
	for name, tree := range baseTrees {
		byText := make(map[string]string, len(tree))
		for id, n := range tree {
			byText[n.text] = id
		}
		idx[name] = byText
	}
	return &Provider{textIndex: idx}
}

func (p *Provider) Name() string { return "offline" }

// Themes returns every accepted theme name, sorted.
func Themes() []string {
	out := make([]string, 0, len(themeAliases))
	for t := range themeAliases {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ValidTheme reports whether the theme has a story tree behind it.
func ValidTheme(theme string) bool {
	_, ok := themeAliases[theme]
	return ok
}

// NextScene walks the theme's tree. The current node is recovered from
// the last history entry; an unknown position or invalid choice restarts
// from the opening scene rather than erroring, which keeps the offline
// path forgiving on a lossy link.
func (p *Provider) NextScene(_ context.Context, theme string, history []string, choice string) (*story.Scene, error) {
	base, ok := themeAliases[theme]
	if !ok {
		base = "fantasy"
	}
	tree := baseTrees[base]

	nodeID := "start"
	if choice != "" && len(history) > 0 {
		if currentID, ok := p.textIndex[base][history[len(history)-1]]; ok {
			if nextID, ok := tree[currentID].next[choice]; ok {
				nodeID = nextID
			}
		}
	}

	n := tree[nodeID]
	return &story.Scene{
		Text:    n.text,
		Choices: append([]string(nil), n.choices...),
		Ending:  len(n.choices) == 0,
	}, nil
}
