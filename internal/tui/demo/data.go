package demo

import (
	"fmt"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/tujuhre12/vstack/internal/log"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
)

type (
	fileChangedMsg struct {
		sections []section.TextSection
		watch    bool
	}
	fileErrorMsg struct {
		err   error
		watch bool
	}
	watchClosedMsg struct{}
)

// SampleSections is the data shown when no file is given.
func SampleSections() []section.TextSection {
	names := []string{"Inbox", "Starred", "Archive"}
	sizes := []int{50, 8, 30}
	sections := make([]section.TextSection, 0, len(names))
	for si, name := range names {
		items := make([]section.TextItem, sizes[si])
		for i := range items {
			items[i] = section.TextItem{
				Key:  fmt.Sprintf("%s-%d", name, i),
				Text: fmt.Sprintf("%s item %d", name, i),
			}
		}
		sections = append(sections, section.TextSection{Key: section.StringKey(name), Items: items})
	}
	// shown even when a search leaves it empty
	sections = append(sections, section.TextSection{Key: "Drafts", ShowWhenEmpty: true})
	return sections
}

func loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		sections, err := section.Load(path)
		if err != nil {
			return fileErrorMsg{err: err}
		}
		return fileChangedMsg{sections: sections}
	}
}

// watchFile watches the directory of path, so editors that replace the
// file on save are still seen.
func watchFile(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return w, nil
}

// waitForChange blocks until path changes and then reloads it.
func waitForChange(w *fsnotify.Watcher, path string) tea.Cmd {
	return func() (msg tea.Msg) {
		defer log.RecoverPanic("file-watcher", func() {
			msg = watchClosedMsg{}
		})
		target := filepath.Clean(path)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return watchClosedMsg{}
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				slog.Debug("Sections file changed", "path", path, "op", ev.Op.String())
				msg := loadCmd(path)()
				switch m := msg.(type) {
				case fileChangedMsg:
					m.watch = true
					return m
				case fileErrorMsg:
					m.watch = true
					return m
				}
				return msg
			case err, ok := <-w.Errors:
				if !ok {
					return watchClosedMsg{}
				}
				return fileErrorMsg{err: fmt.Errorf("watching %s: %w", path, err), watch: true}
			}
		}
	}
}
