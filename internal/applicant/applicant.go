package applicant

import (
	"path/filepath"
	"strings"
)

// Role is the kind of document a file holds.
type Role string

const (
	Resume      Role = "Resume"
	CoverLetter Role = "CoverLetter"
	Unknown     Role = "Unknown"
)

// UnknownKey is returned for file names that do not follow the naming convention.
const UnknownKey = "Unknown"

// Resolve derives the document role and applicant key from a file name of the
// form <Role>_<First>-<Last>_<anything>.pdf. It never fails: names that do not
// match the convention resolve to Unknown.
//
// Names with more than one hyphen keep only the first and last pieces, so
// "Anna-O-Keefe" becomes "Anna-Keefe". Two different people can collide under
// this rule.
func Resolve(path string) (Role, string) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 2 {
		return Unknown, UnknownKey
	}

	role := Unknown
	switch Role(parts[0]) {
	case Resume, CoverLetter:
		role = Role(parts[0])
	}

	return role, collapseName(parts[1])
}

func collapseName(name string) string {
	if strings.Count(name, "-") <= 1 {
		return name
	}
	pieces := strings.Split(name, "-")
	return pieces[0] + "-" + pieces[len(pieces)-1]
}

// Bundle groups the documents of one applicant. An empty path means the
// document is absent.
type Bundle struct {
	Key             string `json:"key"`
	ResumePath      string `json:"resume_path,omitempty"`
	CoverLetterPath string `json:"cover_letter_path,omitempty"`
}

// Empty reports whether the bundle holds no documents at all.
func (b *Bundle) Empty() bool {
	return b.ResumePath == "" && b.CoverLetterPath == ""
}

// Bundles is an insertion-ordered applicant key to bundle mapping.
type Bundles struct {
	keys  []string
	items map[string]*Bundle
}

// Aggregate groups paths into bundles by applicant key. Files with an unknown
// role are dropped and never create a bundle.
func Aggregate(paths []string) *Bundles {
	b := &Bundles{items: make(map[string]*Bundle)}
	for _, path := range paths {
		role, key := Resolve(path)
		if role == Unknown {
			continue
		}

		bundle, ok := b.items[key]
		if !ok {
			bundle = &Bundle{Key: key}
			b.items[key] = bundle
			b.keys = append(b.keys, key)
		}

		switch role {
		case Resume:
			bundle.ResumePath = path
		case CoverLetter:
			bundle.CoverLetterPath = path
		}
	}
	return b
}

func (b *Bundles) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Items returns bundles in discovery order.
func (b *Bundles) Items() []*Bundle {
	if b == nil {
		return nil
	}
	items := make([]*Bundle, 0, len(b.keys))
	for _, key := range b.keys {
		items = append(items, b.items[key])
	}
	return items
}
