package models

import "strings"

// Tag is a searchable route attribute.
type Tag string

// Tag vocabulary
const (
	TagWheelchair Tag = "wheelchair"
	TagElderly    Tag = "elderly"
	TagBaby       Tag = "baby"
	TagShortest   Tag = "shortest"
)

// IsValidTag reports whether t belongs to the tag vocabulary.
func IsValidTag(t Tag) bool {
	switch t {
	case TagWheelchair, TagElderly, TagBaby, TagShortest:
		return true
	}
	return false
}

// TagSet is an unordered set of tags selected by a searcher.
type TagSet map[Tag]struct{}

// NewTagSet builds a set from tags.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// ParseTagSet builds a set from a comma separated list, ignoring blanks.
func ParseTagSet(csv string) TagSet {
	s := TagSet{}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			s[Tag(part)] = struct{}{}
		}
	}
	return s
}

// Has reports whether t is in the set. A nil set has no members.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}
