package service

import (
	"fmt"
	"strings"

	"github.com/mbeckett/herald/internal/model"
)

// nameSuffixes are generational and professional suffixes dropped when
// deriving a family name.
var nameSuffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
	"iv":  true,
	"phd": true,
	"esq": true,
	"md":  true,
}

func isSuffix(word string) bool {
	return nameSuffixes[strings.ToLower(strings.ReplaceAll(word, ".", ""))]
}

// lastName extracts a family name, tolerating both "First Last" and the
// federal directory's "Last, First" ordering.
func lastName(full string) string {
	var kept []string
	for _, part := range strings.Split(full, ",") {
		part = strings.TrimSpace(part)
		if part == "" || isSuffix(part) {
			continue
		}
		kept = append(kept, part)
	}

	switch len(kept) {
	case 0:
		return ""
	case 1:
		// "First Last" order: the family name is the last non-suffix word.
		words := strings.Fields(kept[0])
		for i := len(words) - 1; i >= 0; i-- {
			if !isSuffix(words[i]) {
				return words[i]
			}
		}
		return ""
	default:
		// "Last, First" order: everything before the first comma is the
		// family name.
		return kept[0]
	}
}

// honorific maps an office title to the greeting prefix for outreach.
func honorific(officeTitle string) string {
	title := strings.ToLower(officeTitle)
	switch {
	case strings.Contains(title, "president"):
		return "President"
	case strings.Contains(title, "senat"):
		return "Sen."
	case strings.Contains(title, "house"),
		strings.Contains(title, "represent"),
		strings.Contains(title, "congress"):
		return "Rep."
	default:
		return "Hon."
	}
}

// Salutation builds the greeting line for a representative, e.g.
// "Dear Sen. Cruz".
func Salutation(rep *model.Representative) string {
	name := lastName(rep.FullName)
	if name == "" {
		name = rep.FullName
	}
	return fmt.Sprintf("Dear %s %s", honorific(rep.OfficeTitle), name)
}
