package domain

import "github.com/samber/lo"

// ScriptUnit describes a deployment script: what it is called, which tags
// select it, what must run before it and what it needs to succeed.
type ScriptUnit struct {
	ID           string   `json:"id" yaml:"id"`
	Tags         []string `json:"tags,omitempty" yaml:"tags"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies"` // script IDs or tags
	Accounts     []string `json:"accounts,omitempty" yaml:"-"`                // named account roles used
	Artifacts    []string `json:"artifacts,omitempty" yaml:"-"`               // artifact names used
}

// HasTag reports whether the unit carries tag.
func (s ScriptUnit) HasTag(tag string) bool {
	return lo.Contains(s.Tags, tag)
}
