package story

import (
	"context"
	"fmt"

	"mesh-adventure-be/internal/pkg/logger"
)

// Chain tries generators in priority order and returns the first
// success. Failures of non-terminal entries are logged, never surfaced
// to the player; the last entry is expected to be the offline generator,
// which cannot fail.
type Chain struct {
	generators []Generator
	log        logger.ILogger
}

var _ Generator = (*Chain)(nil)

func NewChain(log logger.ILogger, generators ...Generator) *Chain {
	return &Chain{generators: generators, log: log}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) NextScene(ctx context.Context, theme string, history []string, choice string) (*Scene, error) {
	var lastErr error
	for _, g := range c.generators {
		scene, err := g.NextScene(ctx, theme, history, choice)
		if err == nil {
			return scene, nil
		}
		lastErr = err
		c.log.Warn("story", "backend failed, falling through", map[string]interface{}{
			"backend": g.Name(),
			"error":   err.Error(),
		})
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: empty chain", ErrBackendUnavailable)
	}
	return nil, lastErr
}
