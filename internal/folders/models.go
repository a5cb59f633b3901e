// Package folders persists study folders together with their todos and media notes.
package folders

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the calendar-date format used for deadlines and capture dates.
const DateLayout = "2006-01-02"

type NoteType string

const (
	NoteImage NoteType = "image"
	NoteVideo NoteType = "video"
)

type Folder struct {
	Name  string `json:"name"`
	Todos []Todo `json:"todos"`
	Notes []Note `json:"notes"`
}

type Todo struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	Checked bool   `json:"checked"`
}

// Validate implements validation.Validatable.
func (t Todo) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.By(notBlank)),
		validation.Field(&t.Date, validation.Required, validation.Date(DateLayout)),
	)
}

// Note is a captured image or video. Type is empty for notes recorded
// before media types were tracked.
type Note struct {
	URI  string   `json:"uri"`
	Type NoteType `json:"type,omitempty"`
	Date string   `json:"date"`
}

// Validate implements validation.Validatable.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.URI, validation.Required, validation.By(notBlank)),
		validation.Field(&n.Type, validation.In(NoteImage, NoteVideo)),
		validation.Field(&n.Date, validation.Required, validation.Date(DateLayout)),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

// Open reports the todos that are not checked yet.
func (f Folder) Open() []Todo {
	var out []Todo
	for _, t := range f.Todos {
		if !t.Checked {
			out = append(out, t)
		}
	}
	return out
}

func (f *Folder) normalize() {
	if f.Todos == nil {
		f.Todos = []Todo{}
	}
	if f.Notes == nil {
		f.Notes = []Note{}
	}
}
