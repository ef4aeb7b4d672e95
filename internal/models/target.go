package models

import "strings"

// Target is one configured remote resource being monitored. ID is the stable
// key under which its snapshot is stored.
type Target struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	URL      string `json:"url" yaml:"url" validate:"required,url"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Keyword  string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
}

// DisplayName returns the name used in messages, falling back to the id.
func (t Target) DisplayName() string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return t.ID
}
