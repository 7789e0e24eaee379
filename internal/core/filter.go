package core

import (
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

const DefaultMask = '*'

// TextFilter rewrites message content before it is stored.
type TextFilter interface {
	Apply(text string) string
}

// ContentFilter masks every case-insensitive occurrence of a disallowed term
// with a run of mask characters of the same rune length.
type ContentFilter struct {
	pattern *regexp.Regexp
	mask    string
}

func NewContentFilter(terms []string, mask rune) *ContentFilter {
	if mask == 0 {
		mask = DefaultMask
	}
	f := &ContentFilter{mask: string(mask)}

	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) == 0 {
		return f
	}
	// Longest first so a term never shadows a longer one sharing its prefix.
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	f.pattern = regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
	return f
}

func (f *ContentFilter) Apply(text string) string {
	if f == nil || f.pattern == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat(f.mask, utf8.RuneCountInString(m))
	})
}

// LiveFilter is a TextFilter whose term list can be replaced at runtime.
// Replacement only affects content filtered afterwards.
type LiveFilter struct {
	current atomic.Pointer[ContentFilter]
}

func NewLiveFilter(terms []string, mask rune) *LiveFilter {
	lf := &LiveFilter{}
	lf.current.Store(NewContentFilter(terms, mask))
	return lf
}

func (lf *LiveFilter) Apply(text string) string { return lf.current.Load().Apply(text) }

func (lf *LiveFilter) Update(terms []string, mask rune) {
	lf.current.Store(NewContentFilter(terms, mask))
}
