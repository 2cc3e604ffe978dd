package student

import (
	"strings"

	"academy/internal/domain/field"
)

// ParentDetails holds the guardian sub-record embedded in every student.
// It is a value, never a pointer: an absent object decodes to empty fields.
type ParentDetails struct {
	FatherName       field.Text `json:"fatherName"`
	FatherOccupation field.Text `json:"fatherOccupation"`
	MotherName       field.Text `json:"motherName"`
	MotherOccupation field.Text `json:"motherOccupation"`
}

// Student is an enrolled person as returned by the admin roster endpoint.
type Student struct {
	ID               string     `json:"_id"`
	StudentName      string     `json:"studentName"`
	PhonePrimary     field.Text `json:"phonePrimary"`
	PhoneAlternate   field.Text `json:"phoneAlternate"`
	Email            field.Text `json:"email"`
	EmergencyContact field.Text `json:"emergencyContact"`
	HomeAddress      field.Text `json:"homeAddress"`

	Age           field.Text `json:"age"`
	Gender        field.Text `json:"gender"`
	DOB           field.Date `json:"dob"`
	MaritalStatus field.Text `json:"maritalStatus"`
	Religion      field.Text `json:"religion"`
	Caste         field.Text `json:"caste"`
	Nationality   field.Text `json:"nationality"`

	AadhaarNo field.Text `json:"aadhaarNo"`
	PANNo     field.Text `json:"panNo"`

	School                 field.Text `json:"school"`
	Grade                  field.Text `json:"grade"`
	College                field.Text `json:"college"`
	Occupation             field.Text `json:"occupation"`
	PreviousDanceEducation field.Text `json:"previousDanceEducation"`
	GuruName               field.Text `json:"guruName"`
	ExamsAppeared          field.Text `json:"examsAppeared"`
	Gharana                field.Text `json:"gharana"`

	Venue field.Text `json:"venue"`
	Date  field.Date `json:"date"`
	Image string     `json:"image"`

	ParentDetails ParentDetails `json:"parentDetails"`
}

// Key returns the stable identity of the student.
func (s Student) Key() string {
	return s.ID
}

// Name returns the student's name for search.
// The boolean is false when the name is empty. Whitespace is a name.
func (s Student) Name() (string, bool) {
	if s.StudentName == "" {
		return "", false
	}
	return s.StudentName, true
}

// PhotoSource returns the stored photo if it is safe to use as an image source.
// Accepted: http(s) URLs and data:image URIs. Anything else returns "".
// INVARIANT: the stored value is never transformed
func (s Student) PhotoSource() string {
	img := strings.TrimSpace(s.Image)
	lower := strings.ToLower(img)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return img
	case strings.HasPrefix(lower, "data:image/"):
		return img
	default:
		return ""
	}
}
