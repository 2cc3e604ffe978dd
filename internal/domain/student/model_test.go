package student

import (
	"encoding/json"
	"testing"
)

// TestStudent_DecodeRosterItem verifies a backend roster item decodes into Student.
func TestStudent_DecodeRosterItem(t *testing.T) {
	raw := `{
		"_id": "1",
		"studentName": "Asha Rao",
		"phonePrimary": "555",
		"email": "a@x.com",
		"age": 10,
		"gender": "F",
		"dob": "2014-06-01T00:00:00.000Z",
		"examsAppeared": ["Prarambhik", "Praveshika Pratham"],
		"parentDetails": {"fatherName": "R", "fatherOccupation": "Eng", "motherName": "S", "motherOccupation": "Dr"}
	}`
	var s Student
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Key() != "1" || s.StudentName != "Asha Rao" {
		t.Fatalf("identity = %q/%q", s.Key(), s.StudentName)
	}
	if s.Age != "10" {
		t.Errorf("Age = %q, want 10", s.Age)
	}
	if !s.DOB.Valid {
		t.Error("DOB should be valid")
	}
	if s.ExamsAppeared != "Prarambhik, Praveshika Pratham" {
		t.Errorf("ExamsAppeared = %q", s.ExamsAppeared)
	}
	if s.ParentDetails.MotherOccupation != "Dr" {
		t.Errorf("MotherOccupation = %q, want Dr", s.ParentDetails.MotherOccupation)
	}
}

// TestStudent_NullParentDetails verifies a null guardian object decodes to empty fields.
func TestStudent_NullParentDetails(t *testing.T) {
	var s Student
	if err := json.Unmarshal([]byte(`{"_id":"2","studentName":"Meera","parentDetails":null}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.ParentDetails.FatherName != "" {
		t.Errorf("FatherName = %q, want empty", s.ParentDetails.FatherName)
	}
}

// TestStudent_Name verifies only empty names are reported as absent.
func TestStudent_Name(t *testing.T) {
	tests := []struct {
		name   string
		wantOK bool
	}{
		{"Anna", true},
		{"  ", true},
		{"", false},
	}
	for _, tt := range tests {
		got, ok := (Student{StudentName: tt.name}).Name()
		if ok != tt.wantOK || got != tt.name {
			t.Errorf("Name() for %q = %q, %v; want %v", tt.name, got, ok, tt.wantOK)
		}
	}
}

// TestStudent_PhotoSource verifies only URL and data-image sources pass through.
func TestStudent_PhotoSource(t *testing.T) {
	tests := []struct {
		image string
		want  string
	}{
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http://localhost:5000/uploads/a.png", "http://localhost:5000/uploads/a.png"},
		{"data:image/png;base64,iVBORw0KGgo=", "data:image/png;base64,iVBORw0KGgo="},
		{"javascript:alert(1)", ""},
		{"", ""},
		{"iVBORw0KGgo=", ""},
	}
	for _, tt := range tests {
		if got := (Student{Image: tt.image}).PhotoSource(); got != tt.want {
			t.Errorf("PhotoSource(%q) = %q, want %q", tt.image, got, tt.want)
		}
	}
}
