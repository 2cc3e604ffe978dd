package display

import "academy/internal/domain/student"

// Detail is one labeled value of a detail view.
type Detail struct {
	Label string
	Value string
}

// StudentDetails lists every field of a student's detail view in display order.
// POST: absent values render as Placeholder
func StudentDetails(s student.Student, f Formatter) []Detail {
	p := s.ParentDetails
	return []Detail{
		{"Venue", NA(s.Venue)},
		{"Date", f.Date(s.Date)},
		{"Date of Birth", f.Date(s.DOB)},
		{"Age", NA(s.Age)},
		{"School", NA(s.School)},
		{"Grade", NA(s.Grade)},
		{"College", NA(s.College)},
		{"Occupation", NA(s.Occupation)},
		{"Gender", NA(s.Gender)},
		{"Marital Status", NA(s.MaritalStatus)},
		{"Aadhaar No", NA(s.AadhaarNo)},
		{"PAN No", NA(s.PANNo)},
		{"Religion", NA(s.Religion)},
		{"Caste", NA(s.Caste)},
		{"Nationality", NA(s.Nationality)},
		{"Previous Dance Education", NA(s.PreviousDanceEducation)},
		{"Guru Name", NA(s.GuruName)},
		{"Exams Appeared", NA(s.ExamsAppeared)},
		{"Gharana", NA(s.Gharana)},
		{"Father's Name", NA(p.FatherName)},
		{"Father's Occupation", NA(p.FatherOccupation)},
		{"Mother's Name", NA(p.MotherName)},
		{"Mother's Occupation", NA(p.MotherOccupation)},
		{"Home Address", NA(s.HomeAddress)},
		{"Primary Phone", NA(s.PhonePrimary)},
		{"Alternate Phone", NA(s.PhoneAlternate)},
		{"Email", NA(s.Email)},
		{"Emergency Contact", NA(s.EmergencyContact)},
	}
}
