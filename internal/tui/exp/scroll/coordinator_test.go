package scroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

func counts(c ...int) func(section.Position) bool {
	return func(p section.Position) bool {
		return p.Section >= 0 && p.Section < len(c) && p.Item >= 0 && p.Item < c[p.Section]
	}
}

func TestCoordinator(t *testing.T) {
	t.Parallel()

	t.Run("idle does nothing", func(t *testing.T) {
		t.Parallel()
		var c Coordinator
		_, ok := c.OnRenderPass(counts(10))
		assert.False(t, ok)
		assert.Equal(t, Idle, c.State())
		assert.Equal(t, "idle", c.State().String())
	})

	t.Run("invalid target stays pending until the model grows", func(t *testing.T) {
		t.Parallel()
		var c Coordinator
		target := section.Position{Section: 2, Item: 5}
		c.Request(Request{Target: target, Animated: true})

		_, ok := c.OnRenderPass(counts(1, 1, 3))
		require.False(t, ok)
		assert.Equal(t, Pending, c.State())
		req, pending := c.Pending()
		require.True(t, pending)
		assert.Equal(t, target, req.Target)

		valid := counts(1, 1, 6)
		ticket, ok := c.OnRenderPass(valid)
		require.True(t, ok)
		assert.Equal(t, Idle, c.State())
		assert.True(t, ticket.Animated)

		_, again := c.OnRenderPass(valid)
		assert.False(t, again, "a scheduled request is not handed out twice")

		fulfilled := 0
		for range 3 {
			if c.Execute(ticket, valid) {
				fulfilled++
			}
		}
		assert.Equal(t, 1, fulfilled)
	})

	t.Run("newer request supersedes a scheduled one", func(t *testing.T) {
		t.Parallel()
		var c Coordinator
		valid := counts(50)
		c.Request(Request{Target: section.Position{Item: 3}})
		first, ok := c.OnRenderPass(valid)
		require.True(t, ok)

		c.Request(Request{Target: section.Position{Item: 40}})
		assert.False(t, c.Execute(first, valid))
		assert.Equal(t, Pending, c.State())

		second, ok := c.OnRenderPass(valid)
		require.True(t, ok)
		assert.Equal(t, 40, second.Target.Item)
		assert.True(t, c.Execute(second, valid))
	})

	t.Run("target that went stale returns to pending", func(t *testing.T) {
		t.Parallel()
		var c Coordinator
		c.Request(Request{Target: section.Position{Item: 4}})
		ticket, ok := c.OnRenderPass(counts(5))
		require.True(t, ok)

		assert.False(t, c.Execute(ticket, counts(2)))
		assert.Equal(t, Pending, c.State())

		ticket, ok = c.OnRenderPass(counts(5))
		require.True(t, ok)
		assert.True(t, c.Execute(ticket, counts(5)))
		_, pending := c.Pending()
		assert.False(t, pending)
	})

	t.Run("cancel", func(t *testing.T) {
		t.Parallel()
		var c Coordinator
		c.Request(Request{Target: section.Position{Item: 1}})
		ticket, _ := c.OnRenderPass(counts(5))
		c.Cancel()
		assert.False(t, c.Execute(ticket, counts(5)))
		assert.Equal(t, Idle, c.State())
	})
}
