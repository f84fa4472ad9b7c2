package models

import "slices"

type CourseType string

const (
	CourseTypeRoute CourseType = "Route"
	CourseTypeTrail CourseType = "Trail"
)

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldEmail    FieldKind = "email"
	FieldTel      FieldKind = "tel"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
	FieldTextarea FieldKind = "textarea"
	FieldDate     FieldKind = "date"
)

// FieldKinds lists every input kind a course field may use.
var FieldKinds = []FieldKind{FieldText, FieldEmail, FieldTel, FieldNumber, FieldSelect, FieldTextarea, FieldDate}

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// CourseField is a custom question volunteers answer when registering.
type CourseField struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	Type        FieldKind `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

type Course struct {
	ID                  int           `json:"id" yaml:"id"`
	Name                string        `json:"name" yaml:"name"`
	Location            string        `json:"location" yaml:"location"`
	Department          string        `json:"department" yaml:"department"`
	Date                string        `json:"date" yaml:"date"`
	Distance            string        `json:"distance" yaml:"distance"`
	Reward              string        `json:"reward" yaml:"reward"`
	Description         string        `json:"description" yaml:"description"`
	Type                CourseType    `json:"type" yaml:"type"`
	Image               string        `json:"image" yaml:"image"`
	Coordinates         Coordinates   `json:"coordinates" yaml:"coordinates"`
	MaxParticipants     int           `json:"maxParticipants" yaml:"maxParticipants"`
	CurrentParticipants int           `json:"currentParticipants" yaml:"currentParticipants"`
	RequiredFields      []CourseField `json:"requiredFields,omitempty" yaml:"requiredFields,omitempty"`
}

// Clone returns a deep copy of c.
func (c Course) Clone() Course {
	if c.RequiredFields != nil {
		fields := make([]CourseField, len(c.RequiredFields))
		for i, f := range c.RequiredFields {
			f.Options = slices.Clone(f.Options)
			fields[i] = f
		}
		c.RequiredFields = fields
	}
	return c
}

// Snapshot is the denormalized copy stored on a user who picks the course.
func (c Course) Snapshot() RaceSnapshot {
	return RaceSnapshot{
		ID:       c.ID,
		Name:     c.Name,
		Location: c.Location,
		Date:     c.Date,
		Distance: c.Distance,
		Reward:   c.Reward,
		Type:     string(c.Type),
	}
}

// NewCourse carries everything a course has except its id.
type NewCourse struct {
	Name                string
	Location            string
	Department          string
	Date                string
	Distance            string
	Reward              string
	Description         string
	Type                CourseType
	Image               string
	Coordinates         Coordinates
	MaxParticipants     int
	CurrentParticipants int
	RequiredFields      []CourseField
}

func (n NewCourse) WithID(id int) Course {
	return Course{
		ID:                  id,
		Name:                n.Name,
		Location:            n.Location,
		Department:          n.Department,
		Date:                n.Date,
		Distance:            n.Distance,
		Reward:              n.Reward,
		Description:         n.Description,
		Type:                n.Type,
		Image:               n.Image,
		Coordinates:         n.Coordinates,
		MaxParticipants:     n.MaxParticipants,
		CurrentParticipants: n.CurrentParticipants,
		RequiredFields:      n.RequiredFields,
	}.Clone()
}

// CoursePatch is a partial update; nil fields are left untouched.
type CoursePatch struct {
	Name                *string
	Location            *string
	Department          *string
	Date                *string
	Distance            *string
	Reward              *string
	Description         *string
	Type                *CourseType
	Image               *string
	Coordinates         *Coordinates
	MaxParticipants     *int
	CurrentParticipants *int
	RequiredFields      *[]CourseField
}

// Apply merges p into c.
func (p CoursePatch) Apply(c *Course) {
	set(&c.Name, p.Name)
	set(&c.Location, p.Location)
	set(&c.Department, p.Department)
	set(&c.Date, p.Date)
	set(&c.Distance, p.Distance)
	set(&c.Reward, p.Reward)
	set(&c.Description, p.Description)
	set(&c.Type, p.Type)
	set(&c.Image, p.Image)
	set(&c.Coordinates, p.Coordinates)
	set(&c.MaxParticipants, p.MaxParticipants)
	set(&c.CurrentParticipants, p.CurrentParticipants)
	if p.RequiredFields != nil {
		c.RequiredFields = Course{RequiredFields: *p.RequiredFields}.Clone().RequiredFields
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
