package embed

type overwriteState uint8

const (
	overwriteUnset overwriteState = iota
	overwriteEmpty
	overwriteSet
)

// Overwrite is a sparse override for one leaf of an embed. The zero value
// is unset and defers to the base document. Empty() explicitly blanks the
// leaf when the document unwraps to text, which is distinct from unset.
type Overwrite struct {
	state overwriteState
	value any
}

// Empty returns an overwrite that renders the leaf as absent.
func Empty() Overwrite {
	return Overwrite{state: overwriteEmpty}
}

// Value returns an overwrite carrying a concrete replacement value.
func Value(v any) Overwrite {
	return Overwrite{state: overwriteSet, value: v}
}

// IsUnset reports whether the overwrite defers to the base document.
func (o Overwrite) IsUnset() bool {
	return o.state == overwriteUnset
}

// OverwriteView is a sparse shadow of an Embed. Leaves default to unset.
// Field overwrites are addressed by the base embed's field index; the view
// is deliberately not extensible with new fields of its own.
type OverwriteView struct {
	Title       Overwrite
	URL         Overwrite
	Description Overwrite
	Author      AuthorOverwrite
	Thumbnail   MediaOverwrite
	Image       MediaOverwrite
	Footer      FooterOverwrite
	Timestamp   Overwrite

	fields map[int]*FieldOverwrite
}

// AuthorOverwrite shadows Author.
type AuthorOverwrite struct {
	Name Overwrite
	URL  Overwrite
}

// MediaOverwrite shadows Media.
type MediaOverwrite struct {
	URL Overwrite
}

// FooterOverwrite shadows Footer.
type FooterOverwrite struct {
	Text Overwrite
}

// FieldOverwrite shadows one indexed field.
type FieldOverwrite struct {
	Name   Overwrite
	Value  Overwrite
	Inline Overwrite
}

func newOverwriteView() *OverwriteView {
	return &OverwriteView{fields: make(map[int]*FieldOverwrite)}
}

// Field returns the overwrite slot for field index i, materializing it on
// first use. Indices past the base embed's field count are permitted; slots
// there never pair with a base field and only matter for diagnostics.
func (v *OverwriteView) Field(i int) *FieldOverwrite {
	f, ok := v.fields[i]
	if !ok {
		f = &FieldOverwrite{}
		v.fields[i] = f
	}
	return f
}

func (v *OverwriteView) attr(name string) (any, bool) {
	switch name {
	case "title":
		return v.Title, true
	case "url":
		return v.URL, true
	case "description":
		return v.Description, true
	case "author":
		return v.Author, true
	case "thumbnail":
		return v.Thumbnail, true
	case "image":
		return v.Image, true
	case "footer":
		return v.Footer, true
	case "timestamp":
		return v.Timestamp, true
	case "fields":
		return fieldOverwrites(v.fields), true
	}
	return nil, false
}

func (a AuthorOverwrite) attr(name string) (any, bool) {
	switch name {
	case "name":
		return a.Name, true
	case "url":
		return a.URL, true
	}
	return nil, false
}

func (m MediaOverwrite) attr(name string) (any, bool) {
	if name == "url" {
		return m.URL, true
	}
	return nil, false
}

func (f FooterOverwrite) attr(name string) (any, bool) {
	if name == "text" {
		return f.Text, true
	}
	return nil, false
}

func (f FieldOverwrite) attr(name string) (any, bool) {
	switch name {
	case "name":
		return f.Name, true
	case "value":
		return f.Value, true
	case "inline":
		return f.Inline, true
	}
	return nil, false
}

// fieldOverwrites adapts the sparse field map to index addressing. Any
// index resolves; unpopulated slots read as all-unset so resolution falls
// through to the base without mutating the view.
type fieldOverwrites map[int]*FieldOverwrite

func (m fieldOverwrites) at(i int) (any, bool) {
	if f, ok := m[i]; ok {
		return *f, true
	}
	return FieldOverwrite{}, true
}
