package rewrite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html"
)

// JobContext is the posting a resume is tailored for.
type JobContext struct {
	JobTitle       string `json:"jobTitle" validate:"required,max=200,plaintitle"`
	JobDescription string `json:"jobDescription" validate:"required,max=20000"`
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions)`,
)

// ErrInvalidJob wraps every JobContext validation failure.
var ErrInvalidJob = errors.New("invalid job")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Titles end up in file names and prompts, so they stay single-line and
	// free of instruction text.
	_ = v.RegisterValidation("plaintitle", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !strings.ContainsAny(s, "\r\n") && !injectionPattern.MatchString(s)
	})
	return v
}

// Validate checks that both fields are present and bounded.
func (j JobContext) Validate() error {
	if err := validate.Struct(j); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
			ve := ves[0]
			return fmt.Errorf("%w: %s failed %s", ErrInvalidJob, ve.Field(), ve.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return nil
}

// NormalizeJob trims the title and flattens a description pasted as HTML
// into plain text, one block element per line.
func NormalizeJob(j JobContext) JobContext {
	j.JobTitle = strings.Join(strings.Fields(j.JobTitle), " ")
	j.JobDescription = htmlToText(j.JobDescription)
	return j
}

func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var lines []string
	var cur strings.Builder
	flush := func() {
		if t := strings.Join(strings.Fields(cur.String()), " "); t != "" {
			lines = append(lines, t)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "br":
				flush()
				return
			case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "ul", "ol":
				flush()
				if n.Data == "li" {
					cur.WriteString("- ")
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				flush()
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()
	return strings.Join(lines, "\n")
}
