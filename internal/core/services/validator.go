package services

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

// Filesystem-illegal filename characters (Windows superset).
const illegalNameChars = `<>:"/\|?*`

// Characters never allowed inside a destination path.
const illegalPathChars = `<>"|?*`

// Maximum filename length accepted by the validator.
const maxNameLength = 255

// driveLetterPattern matches Windows drive prefixes such as C: or d:.
var driveLetterPattern = regexp.MustCompile(`^[a-zA-Z]:`)

// reservedNames are Windows device names that cannot be used as a
// filename stem, compared case-insensitively without the extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitiseFilename replaces filesystem-illegal characters with
// underscores and trims leading/trailing whitespace and dots. An empty
// result becomes "unnamed".
func SanitiseFilename(name string) string {
	cleaned, _ := sanitiseName(name)
	return cleaned
}

// sanitiseName also reports whether cleaning emptied the name entirely.
func sanitiseName(name string) (string, bool) {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(illegalNameChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	cleaned = strings.Trim(cleaned, ".")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "unnamed", true
	}
	return cleaned, false
}

// checkDestDir rejects destination directories that could escape the
// archive root. Returns "" when the path is safe.
func checkDestDir(dest string) string {
	s := strings.TrimSpace(dest)

	if driveLetterPattern.MatchString(s) {
		return "destination contains a drive letter; must be a relative path"
	}
	if strings.HasPrefix(s, `\\`) || strings.HasPrefix(s, "//") {
		return "UNC network paths are not allowed"
	}

	normalised := strings.ReplaceAll(s, "\\", "/")
	for _, segment := range strings.Split(normalised, "/") {
		if segment == ".." {
			return "destination contains '..' parent reference (path traversal)"
		}
	}

	if path.IsAbs(normalised) {
		return "destination must be relative, not absolute"
	}

	for _, c := range illegalPathChars {
		if strings.ContainsRune(normalised, c) {
			return fmt.Sprintf("destination contains illegal character %q", c)
		}
	}

	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "\\") {
		return "destination must not start with a path separator"
	}

	return ""
}

// ValidatePlan sanitises the plan's filename and checks its destination
// for traversal, mutating the plan in place. It sets IsValid and
// ValidationMsg and never panics: a bad plan is data, not an exception.
func ValidatePlan(plan *domain.RenamePlan) {
	var errs []string

	original := plan.NewName
	cleaned, emptied := sanitiseName(original)
	plan.NewName = cleaned
	if emptied {
		errs = append(errs, fmt.Sprintf("filename %q is empty after cleaning", original))
	}

	if len(cleaned) > maxNameLength {
		errs = append(errs, fmt.Sprintf("filename too long: %d characters (max %d)", len(cleaned), maxNameLength))
	}

	stem := strings.TrimSuffix(cleaned, path.Ext(cleaned))
	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		errs = append(errs, fmt.Sprintf("filename uses reserved device name %s", strings.ToUpper(stem)))
	}

	if msg := checkDestDir(plan.DestDir); msg != "" {
		errs = append(errs, "unsafe destination: "+msg)
	}

	if len(errs) > 0 {
		plan.IsValid = false
		plan.ValidationMsg = strings.Join(errs, "; ")
		return
	}
	plan.IsValid = true
	plan.ValidationMsg = ""
}
