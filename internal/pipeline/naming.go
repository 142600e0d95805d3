package pipeline

import (
	"regexp"
	"strings"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	nameSpaces      = regexp.MustCompile(`\s+`)
)

const maxNameRunes = 80

// TailoredFileName derives the tailored document's file name from the job
// title: punctuation is dropped and spaces become underscores.
func TailoredFileName(jobTitle string) string {
	s := unsafeNameChars.ReplaceAllString(strings.TrimSpace(jobTitle), "")
	s = nameSpaces.ReplaceAllString(strings.TrimSpace(s), "_")
	if r := []rune(s); len(r) > maxNameRunes {
		s = string(r[:maxNameRunes])
	}
	if s == "" {
		s = "Resume"
	}
	return s + "_Tailored_Resume.docx"
}

// MasterPrefix is where a user's master resume is kept.
func MasterPrefix(userID string) string {
	return userID + "/master_resume/"
}

// ResultKey is the object key of a tailored resume.
func ResultKey(userID, fileName string) string {
	return userID + "/" + fileName
}
