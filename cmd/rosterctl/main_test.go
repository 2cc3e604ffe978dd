package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"academy/internal/adapters/pdf"
	"academy/internal/application/display"
	"academy/internal/domain/achievement"
	"academy/internal/domain/field"
	"academy/internal/domain/student"
)

type fakeBackend struct {
	students     []student.Student
	achievements []achievement.Achievement
	err          error
}

func (f fakeBackend) ListStudents(context.Context) ([]student.Student, error) {
	return f.students, f.err
}

func (f fakeBackend) ListAchievements(context.Context) ([]achievement.Achievement, error) {
	return f.achievements, f.err
}

func testOptions() options {
	return options{
		formatter: display.NewFormatter("", nil),
		builder:   func() pdf.DocumentBuilder { return &pdf.Recorder{} },
	}
}

func testBackend() fakeBackend {
	return fakeBackend{
		students: []student.Student{
			{ID: "1", StudentName: "Asha Rao", PhonePrimary: "555", Email: "a@x.com", Age: "10", Gender: "F"},
			{ID: "2", StudentName: "Bhavna Shah"},
		},
		achievements: []achievement.Achievement{
			{ID: "a1", Student: &achievement.StudentRef{ID: "1", StudentName: "Asha Rao"}, EventName: "Utsav", EventDate: field.ParseDate("2024-03-05")},
			{ID: "a2", EventName: "Orphaned"},
		},
	}
}

// TestRun_Students verifies listing and searching the roster.
func TestRun_Students(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"all", []string{"students"}, []string{"(2 of 2)", "Asha Rao", "Bhavna Shah", "a@x.com"}, nil},
		{"search", []string{"students", "-q", "ASHA"}, []string{"(1 of 2)", "Asha Rao"}, []string{"Bhavna Shah"}},
		{"no match", []string{"students", "-q", "xyz"}, []string{"(0 of 2)"}, []string{"Asha Rao"}},
		{"detail", []string{"students", "-id", "1"}, []string{"Asha Rao's Full Details", "Religion", "N/A"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, testBackend(), testOptions(), &stdout, &stderr); code != 0 {
				t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout.String(), w) {
					t.Errorf("output missing %q:\n%s", w, stdout.String())
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(stdout.String(), w) {
					t.Errorf("output contains %q", w)
				}
			}
		})
	}
}

// TestRun_Achievements verifies missing references render N/A and never match a search.
func TestRun_Achievements(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"achievements"}, testBackend(), testOptions(), &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "3/5/2024") || !strings.Contains(stdout.String(), "N/A") {
		t.Errorf("output:\n%s", stdout.String())
	}

	stdout.Reset()
	run(context.Background(), []string{"achievements", "-q", "a"}, testBackend(), testOptions(), &stdout, &stderr)
	if strings.Contains(stdout.String(), "Orphaned") {
		t.Error("record without a student matched the search")
	}

	stdout.Reset()
	run(context.Background(), []string{"achievements", "-id", "a1"}, testBackend(), testOptions(), &stdout, &stderr)
	if !strings.Contains(stdout.String(), "Rank: N/A") {
		t.Errorf("detail output:\n%s", stdout.String())
	}
}

// TestRun_ExportPDF verifies the document is written under the student's name.
func TestRun_ExportPDF(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"achievements", "-id", "a1", "-pdf", dir}, testBackend(), testOptions(), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "Asha Rao_Achievement.pdf"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Student Name: Asha Rao") {
		t.Errorf("document = %q", data)
	}
}

// TestRun_FetchFailure verifies a failed fetch warns and prints an empty table.
func TestRun_FetchFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	b := fakeBackend{err: errors.New("connection refused")}
	if code := run(context.Background(), []string{"students"}, b, testOptions(), &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stderr.String(), "warning: students could not be loaded") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), "(0 of 0)") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

// TestRun_Usage verifies argument errors.
func TestRun_Usage(t *testing.T) {
	tests := []struct {
		args []string
		want int
	}{
		{nil, 2},
		{[]string{"teachers"}, 2},
		{[]string{"achievements", "-pdf", "/tmp"}, 2},
		{[]string{"students", "-pdf", "/tmp"}, 2},
		{[]string{"students", "-id", "missing"}, 1},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		if got := run(context.Background(), tt.args, testBackend(), testOptions(), &stdout, &stderr); got != tt.want {
			t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
		}
	}
}
