package core

import (
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "2024-03", false},
		{"valid december", "2024-12", false},
		{"missing padding", "2024-3", true},
		{"month zero", "2024-00", true},
		{"month thirteen", "2024-13", true},
		{"full date", "2024-03-01", true},
		{"empty", "", true},
		{"garbage", "march", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonthKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.in {
				t.Errorf("ParseMonthKey(%q) = %q", tt.in, got)
			}
		})
	}
}

func TestMonthKey_BeforeAfter(t *testing.T) {
	tests := []struct {
		a, b       MonthKey
		before     bool
		after      bool
	}{
		{"2024-01", "2024-02", true, false},
		{"2024-02", "2024-01", false, true},
		{"2024-02", "2024-02", false, false},
		{"2023-12", "2024-01", true, false},
	}

	for _, tt := range tests {
		if got := tt.a.Before(tt.b); got != tt.before {
			t.Errorf("%s.Before(%s) = %v, want %v", tt.a, tt.b, got, tt.before)
		}
		if got := tt.a.After(tt.b); got != tt.after {
			t.Errorf("%s.After(%s) = %v, want %v", tt.a, tt.b, got, tt.after)
		}
	}
}

func TestMonthKey_DueDate_Clamping(t *testing.T) {
	tests := []struct {
		name  string
		month MonthKey
		day   int
		want  time.Time
	}{
		{
			name:  "regular day",
			month: "2024-03",
			day:   15,
			want:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day 31 in leap february clamps to 29",
			month: "2024-02",
			day:   31,
			want:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day 31 in plain february clamps to 28",
			month: "2023-02",
			day:   31,
			want:  time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day 31 in 30-day month clamps to 30",
			month: "2024-04",
			day:   31,
			want:  time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day 31 in 31-day month stays",
			month: "2024-01",
			day:   31,
			want:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.month.DueDate(tt.day)
			if !got.Equal(tt.want) {
				t.Errorf("DueDate(%d) = %v, want %v", tt.day, got, tt.want)
			}
			// Clamping must never roll into the following month.
			if MonthOf(got) != tt.month {
				t.Errorf("DueDate(%d) rolled into %s", tt.day, MonthOf(got))
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		a, b MonthKey
		want int
	}{
		{"2024-01", "2024-01", 0},
		{"2024-01", "2024-04", 3},
		{"2024-04", "2024-01", -3},
		{"2023-11", "2024-02", 3},
	}

	for _, tt := range tests {
		if got := MonthsBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMonthOf(t *testing.T) {
	got := MonthOf(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC))
	if got != "2024-02" {
		t.Errorf("MonthOf = %s, want 2024-02", got)
	}
}

func TestMonthKey_Next(t *testing.T) {
	if got := MonthKey("2024-12").Next(); got != "2025-01" {
		t.Errorf("Next() = %s, want 2025-01", got)
	}
	if got := MonthKey("2024-01").Next(); got != "2024-02" {
		t.Errorf("Next() = %s, want 2024-02", got)
	}
}
