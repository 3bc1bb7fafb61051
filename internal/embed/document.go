package embed

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Embed is the base structured rich message. All parts are optional except
// that a Field entry, once present, must carry a non-empty Name and Value.
// The zero value is an empty embed.
type Embed struct {
	Title       string
	URL         string
	Description string
	Author      Author
	Thumbnail   Media
	Image       Media
	Footer      Footer
	Timestamp   *time.Time
	Fields      []Field
}

// Author is the embed's author line.
type Author struct {
	Name string
	URL  string
}

// Media points at an externally hosted image.
type Media struct {
	URL string
}

// Footer is the embed's footer line.
type Footer struct {
	Text string
}

// Field is one named entry in the embed's ordered field list.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Validate checks that Name and Value are present.
func (f Field) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.Value, validation.Required),
	)
}

// Validate checks the embed's construction invariants.
func (e Embed) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Fields),
	)
}

// IsEmpty reports whether the embed carries nothing renderable.
func (e Embed) IsEmpty() bool {
	return e.Title == "" &&
		e.URL == "" &&
		e.Description == "" &&
		e.Author == (Author{}) &&
		e.Thumbnail == (Media{}) &&
		e.Image == (Media{}) &&
		e.Footer == (Footer{}) &&
		e.Timestamp == nil &&
		len(e.Fields) == 0
}

// Document pairs a base embed with its exclusively-owned overwrite view.
// The overwrite view shares the document's lifetime and is consulted only
// when the document degrades to plain text; rich delivery ignores it.
type Document struct {
	base       Embed
	overwrites *OverwriteView
}

// New creates a document over the given base embed with an empty
// overwrite view.
func New(base Embed) *Document {
	return &Document{
		base:       base,
		overwrites: newOverwriteView(),
	}
}

// Base returns a copy of the base embed for rich delivery. The field
// slice is cloned too, so neither side can mutate the other through it.
func (d *Document) Base() Embed {
	base := d.base
	base.Fields = append([]Field(nil), d.base.Fields...)
	return base
}

// Overwrites returns the document's overwrite view for population by the
// document's owner.
func (d *Document) Overwrites() *OverwriteView {
	return d.overwrites
}

// FieldCount reports how many fields the base embed carries.
func (d *Document) FieldCount() int {
	return len(d.base.Fields)
}

// SetFieldAt replaces the field at index i. Fields cannot be inserted or
// appended through the document once an overwrite view exists over it,
// because overwrite indices are assigned against the base field order.
func (d *Document) SetFieldAt(i int, f Field) error {
	if i < 0 || i >= len(d.base.Fields) {
		return fmt.Errorf("field index %d out of range [0,%d)", i, len(d.base.Fields))
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid field: %w", err)
	}
	d.base.Fields[i] = f
	return nil
}

// attr implementations expose the embed structure to path resolution.

func (e Embed) attr(name string) (any, bool) {
	switch name {
	case "title":
		return e.Title, true
	case "url":
		return e.URL, true
	case "description":
		return e.Description, true
	case "author":
		return e.Author, true
	case "thumbnail":
		return e.Thumbnail, true
	case "image":
		return e.Image, true
	case "footer":
		return e.Footer, true
	case "timestamp":
		if e.Timestamp == nil {
			return nil, false
		}
		return *e.Timestamp, true
	case "fields":
		return fieldList(e.Fields), true
	}
	return nil, false
}

func (a Author) attr(name string) (any, bool) {
	switch name {
	case "name":
		return a.Name, true
	case "url":
		return a.URL, true
	}
	return nil, false
}

func (m Media) attr(name string) (any, bool) {
	if name == "url" {
		return m.URL, true
	}
	return nil, false
}

func (f Footer) attr(name string) (any, bool) {
	if name == "text" {
		return f.Text, true
	}
	return nil, false
}

func (f Field) attr(name string) (any, bool) {
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

// fieldList adapts the base field slice to index addressing. Indexing past
// the end is not an error; it resolves to absent so overwrite indices can be
// probed speculatively.
type fieldList []Field

func (l fieldList) at(i int) (any, bool) {
	if i < 0 || i >= len(l) {
		return nil, false
	}
	return l[i], true
}
