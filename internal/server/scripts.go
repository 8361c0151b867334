package server

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultScripts is the built-in reply dataset used when no file is given.
//
//go:embed scripts.yaml
var DefaultScripts []byte

// messagePlaceholder is replaced by the user's message in every chunk.
const messagePlaceholder = "{{message}}"

// ─── YAML dataset model ─────────────────────────────────────────────────────

type dataset struct {
	Scripts []Script `yaml:"scripts"`
}

// Script is one canned reply, streamed one chunk at a time.
type Script struct {
	Name    string   `yaml:"name"`
	Match   string   `yaml:"match"`
	Default bool     `yaml:"default"`
	Chunks  []string `yaml:"chunks"`

	re *regexp.Regexp
}

// Scripts selects the reply for a message.
type Scripts struct {
	list []Script
	def  *Script
}

// LoadScripts parses the YAML dataset at filename. When filename is empty
// the built-in DefaultScripts is used.
func LoadScripts(filename string) (*Scripts, error) {
	raw := DefaultScripts
	if filename != "" {
		var err error
		raw, err = os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("reading scripts: %w", err)
		}
	}
	return ParseScripts(raw)
}

// ParseScripts validates a YAML dataset: every script needs chunks, match
// patterns must compile, and exactly one script may be the default.
func ParseScripts(raw []byte) (*Scripts, error) {
	var ds dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parsing scripts: %w", err)
	}
	if len(ds.Scripts) == 0 {
		return nil, fmt.Errorf("parsing scripts: no scripts defined")
	}

	s := &Scripts{list: ds.Scripts}
	for i := range s.list {
		sc := &s.list[i]
		if len(sc.Chunks) == 0 {
			return nil, fmt.Errorf("script %q has no chunks", sc.Name)
		}
		if sc.Default {
			if s.def != nil {
				return nil, fmt.Errorf("scripts %q and %q are both marked default", s.def.Name, sc.Name)
			}
			s.def = sc
		}
		if sc.Match == "" {
			continue
		}
		re, err := regexp.Compile(sc.Match)
		if err != nil {
			return nil, fmt.Errorf("script %q: bad match pattern: %w", sc.Name, err)
		}
		sc.re = re
	}
	if s.def == nil {
		s.def = &s.list[len(s.list)-1]
	}
	return s, nil
}

// Pick returns the first script whose pattern matches message, or the
// default script.
func (s *Scripts) Pick(message string) *Script {
	for i := range s.list {
		if re := s.list[i].re; re != nil && re.MatchString(message) {
			return &s.list[i]
		}
	}
	return s.def
}

// Names lists the scripts in file order.
func (s *Scripts) Names() []string {
	out := make([]string, 0, len(s.list))
	for _, sc := range s.list {
		out = append(out, sc.Name)
	}
	return out
}

// Reply returns the script's chunks with the message substituted.
func (sc *Script) Reply(message string) []string {
	out := make([]string, len(sc.Chunks))
	for i, c := range sc.Chunks {
		out[i] = strings.ReplaceAll(c, messagePlaceholder, message)
	}
	return out
}
