// Package content turns letter body markup into format-neutral blocks and
// prepares the same markup for print rendering.
package content

import (
	"fmt"
	"strings"
)

// Block is one normalized unit of letter content: *Paragraph, *List or *Table.
type Block interface {
	block()
}

// Run is a span of text sharing the same emphasis.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	// Break means a line break precedes the run.
	Break bool
}

func (r Run) sameStyle(o Run) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline
}

// Paragraph is a run sequence rendered as one paragraph.
type Paragraph struct {
	Runs []Run
}

// Text returns the paragraph text with line breaks as "\n".
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		if r.Break {
			b.WriteByte('\n')
		}
		b.WriteString(r.Text)
	}
	return b.String()
}

// List holds plain item strings. Numbering and bullets are applied when the
// list is rendered, see Line.
type List struct {
	Ordered bool
	Items   []string
}

// Line returns item i with its list prefix: "• item" or "n. item".
func (l *List) Line(i int) string {
	if l.Ordered {
		return fmt.Sprintf("%d. %s", i+1, l.Items[i])
	}
	return Bullet + l.Items[i]
}

// Bullet prefixes unordered list items.
const Bullet = "• "

// Table is a grid of plain cell strings. Every row has the same number of
// cells; Header marks the first row.
type Table struct {
	Rows   [][]string
	Header bool
}

// Columns returns the column count.
func (t *Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

func (*Paragraph) block() {}
func (*List) block()      {}
func (*Table) block()     {}

// Placeholder is the boilerplate letter used when no content was supplied.
func Placeholder() []Block {
	return []Block{
		&Paragraph{Runs: []Run{{Text: "Dear [Recipient],"}}},
		&Paragraph{Runs: []Run{{Text: "Thank you for your continued interest in our services. " +
			"This letter confirms the details we discussed and outlines the next steps."}}},
		&Paragraph{Runs: []Run{{Text: "Please do not hesitate to contact us should you have any questions " +
			"or require further information."}}},
		&Paragraph{Runs: []Run{
			{Text: "Sincerely,"},
			{Text: "[Your Name]", Break: true},
			{Text: "[Your Title]", Break: true},
		}},
	}
}

// PlainText flattens blocks to text. Paragraphs are separated by a blank
// line, list items carry their prefix and table cells are tab separated.
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		switch b := blk.(type) {
		case *Paragraph:
			parts = append(parts, b.Text())
		case *List:
			lines := make([]string, len(b.Items))
			for i := range b.Items {
				lines[i] = b.Line(i)
			}
			parts = append(parts, strings.Join(lines, "\n"))
		case *Table:
			rows := make([]string, len(b.Rows))
			for i, row := range b.Rows {
				rows[i] = strings.Join(row, "\t")
			}
			parts = append(parts, strings.Join(rows, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}
