/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: html.go
Description: HTML table extraction. Converts the first table of an HTML document into
tab-delimited text so pasted or fetched web tables go through the same inference path
as plain text.
*/

package source

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTable is returned when an HTML document contains no table rows
var ErrNoTable = errors.New("no table found in HTML document")

// ExtractHTMLTable returns the first table of an HTML document as
// tab-delimited lines, one per row. A caption becomes a "#name:" directive.
func ExtractHTMLTable(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return "", ErrNoTable
	}

	var b strings.Builder
	if caption := cellText(table.Find("caption").First()); caption != "" {
		fmt.Fprintf(&b, "#name: %s\n", caption)
	}
	rows := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
		})
		if len(cells) == 0 {
			return
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
		rows++
	})
	if rows == 0 {
		return "", ErrNoTable
	}
	return b.String(), nil
}

// cellText collapses whitespace so a cell never spans lines or embeds a tab
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
