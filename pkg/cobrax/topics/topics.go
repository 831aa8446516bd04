// Package topics extends Cobra's help with free-form documentation
// topics served from an embedded filesystem, so the binary carries its
// own manual.
package topics

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Topic is one help document.
type Topic struct {
	Name    string
	Content string
}

// Manager serves topics out of a filesystem subtree.
type Manager struct {
	topics   map[string]*Topic
	renderer Renderer
}

// New loads every .md and .txt file under dir in fsys as a topic named
// after its basename.
func New(fsys fs.FS, dir string, renderer Renderer) (*Manager, error) {
	if renderer == nil {
		renderer = &PlainRenderer{}
	}
	m := &Manager{topics: make(map[string]*Topic), renderer: renderer}

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := path.Ext(p)
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(path.Base(p), ext)
		m.topics[name] = &Topic{Name: name, Content: string(content)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Names lists available topics, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a topic by name.
func (m *Manager) Lookup(name string) (*Topic, bool) {
	t, ok := m.topics[name]
	return t, ok
}

// Command builds a `topics [name]` command listing and rendering the
// loaded topics.
func (m *Manager) Command() *cobra.Command {
	return &cobra.Command{
		Use:       "topics [topic]",
		Short:     "Show extended documentation topics",
		ValidArgs: m.Names(),
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range m.Names() {
					cmd.Println(name)
				}
				return nil
			}
			topic, ok := m.Lookup(args[0])
			if !ok {
				return cmd.Help()
			}
			cmd.Print(m.renderer.Render(topic.Content))
			return nil
		},
	}
}
