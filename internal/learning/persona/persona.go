// Package persona holds the fixed tutor lookup tables: speech voice per
// gender and region, and teaching style per region.
package persona

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
)

//go:embed persona.yaml
var tablesYAML []byte

type voiceTable struct {
	Fallback string            `yaml:"fallback"`
	Regions  map[string]string `yaml:"regions"`
}

type Style struct {
	Archetype string `yaml:"archetype"`
	Directive string `yaml:"directive"`
}

type Tables struct {
	Voices       map[string]voiceTable `yaml:"voices"`
	DefaultVoice string                `yaml:"default_voice"`
	Styles       map[string]Style      `yaml:"styles"`
	DefaultStyle string                `yaml:"default_style"`
}

var (
	loadOnce sync.Once
	loaded   *Tables
	loadErr  error
)

// Parse decodes and checks a tables document.
func Parse(raw []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse persona tables: %w", err)
	}
	if t.DefaultVoice == "" {
		return nil, fmt.Errorf("persona tables: default_voice required")
	}
	if _, ok := t.Styles[t.DefaultStyle]; !ok {
		return nil, fmt.Errorf("persona tables: default_style %q has no entry", t.DefaultStyle)
	}
	for g, vt := range t.Voices {
		if vt.Fallback == "" {
			return nil, fmt.Errorf("persona tables: gender %q has no fallback voice", g)
		}
	}
	return &t, nil
}

// Default returns the embedded tables. It panics if the embedded document is malformed.
func Default() *Tables {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(tablesYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return loaded
}

// Voice selects the speech voice for p.
func (t *Tables) Voice(p course.TutorPersona) string {
	vt, ok := t.Voices[string(p.Gender)]
	if !ok {
		return t.DefaultVoice
	}
	if v, ok := vt.Regions[string(p.Region)]; ok && v != "" {
		return v
	}
	return vt.Fallback
}

// Style selects the teaching style for region.
func (t *Tables) Style(region course.Region) Style {
	if s, ok := t.Styles[string(region)]; ok {
		return s
	}
	return t.Styles[t.DefaultStyle]
}
