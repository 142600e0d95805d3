package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// PlainText returns the text of every body paragraph, in order, including
// empty ones. It reads the document through an independent decoder and is
// used to show a document's text and to cross-check extraction.
func PlainText(r io.ReaderAt, size int64) ([]string, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, &MalformedDocumentError{Message: "parse docx", Cause: err}
	}

	var out []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		out = append(out, docxParagraphText(para))
	}
	return out, nil
}

// PlainTextBytes is PlainText over an in-memory document.
func PlainTextBytes(data []byte) ([]string, error) {
	return PlainText(bytes.NewReader(data), int64(len(data)))
}

// ParagraphCountMismatch compares the extractor's paragraph count with the
// independent decoder's and describes any difference.
func ParagraphCountMismatch(data []byte, extracted int) (string, error) {
	texts, err := PlainTextBytes(data)
	if err != nil {
		return "", err
	}
	if len(texts) == extracted {
		return "", nil
	}
	return fmt.Sprintf("extracted %d paragraphs, plain decoder saw %d", extracted, len(texts)), nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
