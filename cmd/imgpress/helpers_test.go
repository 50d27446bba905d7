package main

import (
	"strings"
	"testing"

	"imgpress/internal/queue"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "17"})
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 17 {
		t.Fatalf("ids = %v", ids)
	}

	if _, err := parseIDs([]string{"abc"}); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"trip/photo.png", "photo.png"},
		{"a/b/c.jpg", "c.jpg"},
	}
	for _, tc := range cases {
		if got := baseName(tc.in); got != tc.want {
			t.Errorf("baseName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderQueueTable(t *testing.T) {
	out := renderQueueTable([]queueRow{
		{id: 7, kind: queue.KindConvert, label: "photo.png", status: queue.StatusCompleted, detail: "1.0 KiB"},
		{id: 12, kind: queue.KindArchiveGroup, label: "Vacation", status: queue.StatusFailed, detail: "boom"},
	})
	for _, want := range []string{"ID", "photo.png", "completed", "Vacation", "boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}
