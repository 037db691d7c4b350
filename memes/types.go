package memes

import "time"

// Source names which transport produced a TemplateList.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Template is one meme template as published by the upstream API.
type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	BoxCount int    `json:"box_count,omitempty"`
	Captions int    `json:"captions,omitempty"`
}

// TemplateList is the result of one successful upstream fetch.
// A cached list is shared between callers and must not be mutated.
type TemplateList struct {
	Templates []Template `json:"templates"`
	Source    Source     `json:"source"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Find returns the template with the given id.
func (l *TemplateList) Find(id string) (Template, bool) {
	if l == nil {
		return Template{}, false
	}
	for _, t := range l.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Len returns the number of templates.
func (l *TemplateList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Templates)
}
