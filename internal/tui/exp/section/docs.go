package section

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// StringKey is a section key backed by a string.
type StringKey string

func (k StringKey) String() string { return string(k) }

// TextItem is a plain item used by snapshot files.
type TextItem struct {
	Key  string `json:"id" yaml:"id"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

func (t TextItem) ID() string { return t.Key }
func (t TextItem) Equal(other TextItem) bool { return t == other }
func (t TextItem) SearchText() string { return t.Text }
func (t TextItem) ContentHash() uint64 { return xxh3.HashString(t.Text) }

// Doc is the on-disk form of a section.
type Doc struct {
	Key           string     `json:"key" yaml:"key"`
	ShowWhenEmpty bool       `json:"show_when_empty,omitempty" yaml:"show_when_empty,omitempty"`
	Items         []TextItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// File is a document holding an ordered list of sections.
type File struct {
	Sections []Doc `json:"sections" yaml:"sections"`
}

// TextSection is the section type produced by snapshot files.
type TextSection = Section[StringKey, TextItem]

// Decode reads a YAML document of sections.
func Decode(r io.Reader) ([]TextSection, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode sections: %w", err)
	}
	sections := make([]TextSection, 0, len(f.Sections))
	for _, d := range f.Sections {
		sections = append(sections, TextSection{
			Key:           StringKey(d.Key),
			Items:         d.Items,
			ShowWhenEmpty: d.ShowWhenEmpty,
		})
	}
	return sections, nil
}

// Load decodes the YAML file at path.
func Load(path string) ([]TextSection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
