package embed

import (
	"strconv"
	"time"
)

// Segment addresses one step through a document: either a named attribute
// or an index into the field sequence.
type Segment struct {
	name    string
	index   int
	isIndex bool
}

// Attr returns a segment addressing a named attribute.
func Attr(name string) Segment {
	return Segment{name: name}
}

// Index returns a segment addressing the field sequence by position.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.name
}

// node exposes named children to path resolution.
type node interface {
	attr(name string) (any, bool)
}

// seqNode exposes positional children to path resolution.
type seqNode interface {
	at(i int) (any, bool)
}

// descend resolves one segment against a value. Attribute access is tried
// first, then integer indexing (a named segment that parses as an integer
// may address a sequence), then string-keyed map access. Anything else is
// absent.
func descend(v any, seg Segment) (any, bool) {
	if seg.isIndex {
		if s, ok := v.(seqNode); ok {
			return s.at(seg.index)
		}
		if m, ok := v.(map[string]any); ok {
			if child, ok := m[strconv.Itoa(seg.index)]; ok {
				return child, true
			}
		}
		return nil, false
	}
	if n, ok := v.(node); ok {
		if child, ok := n.attr(seg.name); ok {
			return child, true
		}
	}
	if i, err := strconv.Atoi(seg.name); err == nil {
		if s, ok := v.(seqNode); ok {
			if child, ok := s.at(i); ok {
				return child, true
			}
		}
	}
	if m, ok := v.(map[string]any); ok {
		if child, ok := m[seg.name]; ok {
			return child, true
		}
	}
	return nil, false
}

// ResolvedValue is the outcome of resolving one path: the overwrite's value
// when one is set (explicit empties included), else the base value, else
// the absent marker. The zero value is absent.
type ResolvedValue struct {
	present bool
	value   any
}

// Present reports whether the path resolved to any value at all.
func (r ResolvedValue) Present() bool {
	return r.present
}

// String returns the resolved string, or "" for absent or non-string values.
func (r ResolvedValue) String() string {
	if !r.present {
		return ""
	}
	s, _ := r.value.(string)
	return s
}

// Bool returns the resolved boolean, or false for absent or non-bool values.
func (r ResolvedValue) Bool() bool {
	if !r.present {
		return false
	}
	b, _ := r.value.(bool)
	return b
}

// Time returns the resolved timestamp, reporting whether one was present.
func (r ResolvedValue) Time() (time.Time, bool) {
	if !r.present {
		return time.Time{}, false
	}
	t, ok := r.value.(time.Time)
	return t, ok
}

// Resolve walks the overwrite view and the base embed side by side. The
// overwrite walk goes unset the first time a segment fails to resolve and
// stays unset for the remainder. A set overwrite wins unconditionally at
// the end, even when it resolves to an explicit empty; otherwise the base
// side's value is returned, which may itself be absent. Missing attributes
// and out-of-range indices resolve to the absent marker, never an error.
//
// An empty path is a programming error and panics.
func (d *Document) Resolve(path ...Segment) ResolvedValue {
	if len(path) == 0 {
		panic("embed: Resolve requires at least one path segment")
	}
	var (
		ow     any = d.overwrites
		owOK       = true
		base   any = d.base
		baseOK     = true
	)
	for _, seg := range path {
		if owOK {
			ow, owOK = descend(ow, seg)
		}
		if baseOK {
			base, baseOK = descend(base, seg)
		}
	}
	if owOK {
		if o, ok := ow.(Overwrite); ok {
			switch o.state {
			case overwriteSet:
				return ResolvedValue{present: true, value: o.value}
			case overwriteEmpty:
				return ResolvedValue{present: true, value: ""}
			}
		}
	}
	if baseOK {
		return ResolvedValue{present: true, value: base}
	}
	return ResolvedValue{}
}
