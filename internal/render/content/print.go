package content

import (
	"bytes"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Inline styles applied to structural elements before print conversion. The
// print backend applies no user agent stylesheet we can rely on, so borders
// and spacing are carried on the elements themselves.
const (
	StyleList      = "margin: 0 0 10pt 0; padding-left: 20pt;"
	StyleListItem  = "margin: 0 0 4pt 0;"
	StyleTable     = "width: 100%; border-collapse: collapse; margin: 10pt 0;"
	StyleTableHead = "border: 1px solid #333333; padding: 5pt; background-color: #f2f2f2; font-weight: bold; text-align: left;"
	StyleTableCell = "border: 1px solid #333333; padding: 5pt; text-align: left;"
	StyleParagraph = "margin: 0 0 10pt 0;"
)

// PxToPt converts CSS pixels (96 per inch) to points (72 per inch).
const PxToPt = 0.75

var (
	fontSizePxRe = regexp.MustCompile(`(?i)(font-size\s*:\s*)(\d+(?:\.\d+)?)px`)

	droppedElements = map[atom.Atom]bool{
		atom.Script: true,
		atom.Style:  true,
		atom.Iframe: true,
		atom.Object: true,
		atom.Embed:  true,
		atom.Link:   true,
		atom.Meta:   true,
		atom.Base:   true,
		atom.Form:   true,
	}

	structuralStyles = map[atom.Atom]string{
		atom.Ul:    StyleList,
		atom.Ol:    StyleList,
		atom.Li:    StyleListItem,
		atom.Table: StyleTable,
		atom.Th:    StyleTableHead,
		atom.Td:    StyleTableCell,
	}
)

// PrintHTML cleans letter markup for the print path. Inline emphasis and
// structure are kept. Unsafe elements and script attributes are removed,
// bare <div>s become spaced <p>s, runs of <br> collapse to one, list and
// table elements get explicit inline styles and px font sizes become pt.
// Empty input returns "".
func PrintHTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return template.HTMLEscapeString(StripTags(src))
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	cleanNode(root)

	var buf bytes.Buffer
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return template.HTMLEscapeString(StripTags(src))
		}
	}
	return buf.String()
}

// cleanNode rewrites n in place and reports whether it should be kept.
func cleanNode(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return false
	case html.ElementNode:
		if droppedElements[n.DataAtom] {
			return false
		}
		n.Attr = cleanAttrs(n.Attr)
		if n.DataAtom == atom.Div && !hasBlockChild(n) {
			n.DataAtom = atom.P
			n.Data = "p"
			setStyle(n, StyleParagraph)
		}
		if style, ok := structuralStyles[n.DataAtom]; ok {
			setStyle(n, style)
		}
	}

	var prevBr bool
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.ElementNode && c.DataAtom == atom.Br:
			if prevBr {
				n.RemoveChild(c)
			}
			prevBr = true
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			// whitespace between <br>s does not end a run
		default:
			if !cleanNode(c) {
				n.RemoveChild(c)
			} else {
				prevBr = false
			}
		}
		c = next
	}
	return true
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		val := strings.ToLower(strings.TrimSpace(a.Val))
		if (key == "href" || key == "src" || key == "action") && strings.HasPrefix(val, "javascript:") {
			continue
		}
		if key == "style" {
			a.Val = convertFontSizes(a.Val)
		}
		out = append(out, a)
	}
	return out
}

// setStyle prepends base to the element's style so author declarations still
// win.
func setStyle(n *html.Node, base string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, "style") {
			existing := strings.TrimSpace(a.Val)
			if existing != "" && !strings.HasSuffix(existing, ";") {
				existing += ";"
			}
			n.Attr[i].Val = strings.TrimSpace(base + " " + existing)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: base})
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Div, atom.P, atom.Table, atom.Ul, atom.Ol, atom.Blockquote,
			atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return true
		}
	}
	return false
}

func convertFontSizes(style string) string {
	return fontSizePxRe.ReplaceAllStringFunc(style, func(m string) string {
		sub := fontSizePxRe.FindStringSubmatch(m)
		px, err := strconv.ParseFloat(sub[2], 64)
		if err != nil {
			return m
		}
		return sub[1] + strconv.FormatFloat(px*PxToPt, 'f', -1, 64) + "pt"
	})
}

// BlocksHTML renders normalized blocks as print HTML using the same inline
// styles as PrintHTML.
func BlocksHTML(blocks []Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch v := blk.(type) {
		case *Paragraph:
			b.WriteString(`<p style="` + StyleParagraph + `">`)
			for _, r := range v.Runs {
				if r.Break {
					b.WriteString("<br>")
				}
				writeRun(&b, r)
			}
			b.WriteString("</p>")
		case *List:
			tag := "ul"
			if v.Ordered {
				tag = "ol"
			}
			b.WriteString("<" + tag + ` style="` + StyleList + `">`)
			for _, item := range v.Items {
				b.WriteString(`<li style="` + StyleListItem + `">`)
				b.WriteString(template.HTMLEscapeString(item))
				b.WriteString("</li>")
			}
			b.WriteString("</" + tag + ">")
		case *Table:
			b.WriteString(`<table style="` + StyleTable + `">`)
			for i, row := range v.Rows {
				cell, style := "td", StyleTableCell
				if i == 0 && v.Header {
					cell, style = "th", StyleTableHead
				}
				b.WriteString("<tr>")
				for _, c := range row {
					b.WriteString("<" + cell + ` style="` + style + `">`)
					b.WriteString(template.HTMLEscapeString(c))
					b.WriteString("</" + cell + ">")
				}
				b.WriteString("</tr>")
			}
			b.WriteString("</table>")
		}
	}
	return b.String()
}

func writeRun(b *strings.Builder, r Run) {
	var open, closing string
	if r.Bold {
		open, closing = open+"<strong>", "</strong>"+closing
	}
	if r.Italic {
		open, closing = open+"<em>", "</em>"+closing
	}
	if r.Underline {
		open, closing = open+"<u>", "</u>"+closing
	}
	b.WriteString(open)
	b.WriteString(template.HTMLEscapeString(r.Text))
	b.WriteString(closing)
}
