package naming

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// imageExtensions are the source suffixes replaced by the output suffix.
// Anything else keeps its stem untouched and only gains the suffix.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

const outputSuffix = ".jpg"

var titleCaser = cases.Title(language.English)

// OutputName maps a source filename to its converted counterpart: the image
// extension is stripped case-insensitively and the JPEG suffix appended.
func OutputName(sourceName string) string {
	stem := sourceName
	lower := strings.ToLower(sourceName)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			stem = sourceName[:len(sourceName)-len(ext)]
			break
		}
	}
	return stem + outputSuffix
}

// GroupArchiveName is the filename of a per-group zip.
func GroupArchiveName(group string) string {
	return group + ".zip"
}

// ExportArchiveName is the date-stamped filename of a full export zip.
func ExportArchiveName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.zip", prefix, at.Format("2006-01-02"))
}

// DisplayTitle renders a group name for table headers and log lines:
// separators become spaces and each word is title-cased.
func DisplayTitle(group string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(group)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return group
	}
	return titleCaser.String(cleaned)
}
