package naming

import (
	"testing"
	"time"
)

func TestOutputName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.jpg"},
		{"photo.PNG", "photo.jpg"},
		{"scan.jpeg", "scan.jpg"},
		{"already.jpg", "already.jpg"},
		{"anim.gif", "anim.jpg"},
		{"archive.tar.png", "archive.tar.jpg"},
		{"noext", "noext.jpg"},
		{"dotted.name.txt", "dotted.name.txt.jpg"},
	}
	for _, tc := range cases {
		if got := OutputName(tc.in); got != tc.want {
			t.Errorf("OutputName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExportArchiveName(t *testing.T) {
	at := time.Date(2025, time.March, 7, 15, 4, 5, 0, time.UTC)
	if got := ExportArchiveName("converted", at); got != "converted-2025-03-07.zip" {
		t.Fatalf("ExportArchiveName = %q", got)
	}
}

func TestGroupArchiveName(t *testing.T) {
	if got := GroupArchiveName("vacation_photos"); got != "vacation_photos.zip" {
		t.Fatalf("GroupArchiveName = %q", got)
	}
}

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"vacation_photos", "Vacation Photos"},
		{"trip-2024", "Trip 2024"},
		{"already Nice", "Already Nice"},
		{"__", "__"},
	}
	for _, tc := range cases {
		if got := DisplayTitle(tc.in); got != tc.want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollisionResolverGeneratesDupSuffixes(t *testing.T) {
	cr := NewCollisionResolver()

	first := cr.Resolve("/a/photo.png", "photo.jpg")
	if first != "photo.jpg" {
		t.Fatalf("first claim = %q, want photo.jpg", first)
	}
	second := cr.Resolve("/b/photo.png", "photo.jpg")
	if second != "photo - dup1.jpg" {
		t.Fatalf("second claim = %q, want photo - dup1.jpg", second)
	}
	third := cr.Resolve("/c/photo.png", "photo.jpg")
	if third != "photo - dup2.jpg" {
		t.Fatalf("third claim = %q, want photo - dup2.jpg", third)
	}
}

func TestCollisionResolverIsIdempotentPerSource(t *testing.T) {
	cr := NewCollisionResolver()
	a := cr.Resolve("/a/photo.png", "photo.jpg")
	b := cr.Resolve("/a/photo.png", "photo.jpg")
	if a != b {
		t.Fatalf("repeated resolve diverged: %q vs %q", a, b)
	}
}

func TestCollisionResolverKeepsDirectoryPrefix(t *testing.T) {
	cr := NewCollisionResolver()
	cr.Resolve("/a/x.png", "trip/photo.jpg")
	got := cr.Resolve("/b/x.png", "trip/photo.jpg")
	if got != "trip/photo - dup1.jpg" {
		t.Fatalf("resolved = %q", got)
	}
}
