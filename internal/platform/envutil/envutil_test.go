package envutil

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"30d", 30 * 24 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"720h", 720 * time.Hour, true},
		{"3600", time.Hour, true},
		{"", 0, false},
		{"-5", 0, false},
		{"soon", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDuration(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseDuration(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCSV(t *testing.T) {
	t.Setenv("STUDYPAL_TEST_MODELS", " a, ,b ,")
	got := CSV("STUDYPAL_TEST_MODELS", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected CSV: %v", got)
	}
	if def := CSV("STUDYPAL_TEST_UNSET", []string{"x"}); len(def) != 1 || def[0] != "x" {
		t.Fatalf("expected default, got %v", def)
	}
}
