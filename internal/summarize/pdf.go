package summarize

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls the plain text out of a PDF document. Pages that
// fail to decode are skipped rather than failing the whole document.
func ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyDocument
	}
	return sb.String(), nil
}
