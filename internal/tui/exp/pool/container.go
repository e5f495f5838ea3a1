package pool

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
)

// Class is a reuse class. Containers are only recycled within their class.
type Class string

const (
	ItemClass   Class = "item"
	HeaderClass Class = "header"
	FooterClass Class = "footer"
)

// Tree is a render tree embedded in a container, such as a hosted header
// component. It is built lazily and closed when the container is reset.
type Tree interface {
	Render(width int) string
	Close() error
}

// Container is a reusable visual unit. While idle it belongs to the pool;
// while active it belongs to exactly one on-screen element.
type Container struct {
	id    uint64
	class Class
	pool  *Pool
	live  bool

	content string
	lines   []string
	bound   bool
	tree    Tree
}

func (c *Container) ID() uint64 { return c.id }
func (c *Container) Class() Class { return c.class }

// Bind sets the rendered content. Use Rebind on a container that is
// already bound.
func (c *Container) Bind(content string) {
	c.content = content
	c.lines = strings.Split(content, "\n")
	c.bound = true
}

// Host returns the embedded tree, building it with build on first use.
func (c *Container) Host(build func() Tree) Tree {
	if c.tree == nil && build != nil {
		c.tree = build()
	}
	return c.tree
}

func (c *Container) Tree() Tree { return c.tree }
func (c *Container) Bound() bool { return c.bound }
func (c *Container) Content() string { return c.content }
func (c *Container) Lines() []string { return c.lines }
func (c *Container) Height() int { return lipgloss.Height(c.content) }

// Rebind resets the container and binds content, so nothing of the previous
// binding survives.
func (c *Container) Rebind(content string) error {
	if err := c.reset(); err != nil {
		return err
	}
	c.Bind(content)
	return nil
}

// reset clears every binding and tears down the embedded tree.
func (c *Container) reset() error {
	var err error
	if c.tree != nil {
		err = c.tree.Close()
		c.tree = nil
	}
	c.content = ""
	c.lines = nil
	c.bound = false
	if err != nil {
		return errors.Join(ErrReset, err)
	}
	return nil
}
