package vstack

import (
	"github.com/tujuhre12/vstack/internal/tui/exp/pool"
	"github.com/tujuhre12/vstack/internal/tui/util"
)

type textTree string

// Text returns a static tree rendering s.
func Text(s string) pool.Tree { return textTree(s) }

func (t textTree) Render(int) string { return string(t) }
func (t textTree) Close() error      { return nil }

type modelTree struct {
	m     util.Model
	close func() error
}

// ModelTree hosts a bubbletea model as a supplementary tree. onClose, if not
// nil, runs when the hosting container is reset.
func ModelTree(m util.Model, onClose func() error) pool.Tree {
	return &modelTree{m: m, close: onClose}
}

func (t *modelTree) Render(int) string { return t.m.View() }

func (t *modelTree) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}
