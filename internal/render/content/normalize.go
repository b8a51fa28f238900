package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	tableRe    = regexp.MustCompile(`(?is)<table\b[^>]*>(.*?)</table\s*>`)
	rowRe      = regexp.MustCompile(`(?is)<tr\b[^>]*>(.*?)</tr\s*>`)
	cellRe     = regexp.MustCompile(`(?is)<t[hd]\b[^>]*>(.*?)</t[hd]\s*>`)
	listRe     = regexp.MustCompile(`(?is)<(ol|ul)\b[^>]*>(.*?)</(?:ol|ul)\s*>`)
	itemRe     = regexp.MustCompile(`(?is)<li\b[^>]*>(.*?)</li\s*>`)
	brRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockTagRe = regexp.MustCompile(`(?i)</?(?:p|div|h[1-6]|blockquote|section|article|header|footer)\b[^>]*>`)
	spaceRe    = regexp.MustCompile(`[ \t\r\n\f]+`)
	lineEdgeRe = regexp.MustCompile(` *\n *`)
	paraSplit  = regexp.MustCompile(`\n{2,}`)
	markerRe   = regexp.MustCompile("^\x1a(\\d+)\x1a$")
	rawTextRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>|<style\b[^>]*>.*?</style\s*>`)
)

// rawText elements hold code or markup, never printable text
var rawText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Title:    true,
	atom.Iframe:   true,
	atom.Noembed:  true,
	atom.Noframes: true,
}

// Normalize converts an HTML fragment into blocks in source order.
//
// Tables are extracted first, then lists, then block-level tags are collapsed
// into paragraphs and inline b/strong/i/em/u tags become run flags. Any other
// tag is dropped and its text kept. Input that yields no text produces the
// Placeholder letter.
func Normalize(src string) []Block {
	src = strings.ReplaceAll(src, "\x1a", "")
	if strings.TrimSpace(src) == "" {
		return Placeholder()
	}

	var extracted []Block
	stash := func(b Block) string {
		extracted = append(extracted, b)
		return fmt.Sprintf("\n\n\x1a%d\x1a\n\n", len(extracted)-1)
	}

	s := rawTextRe.ReplaceAllString(src, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = tableRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := tableRe.FindStringSubmatch(m)[1]
		t := parseTable(inner)
		if t == nil {
			return " " + inner + " "
		}
		return stash(t)
	})

	s = listRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := listRe.FindStringSubmatch(m)
		l := parseList(strings.EqualFold(sub[1], "ol"), sub[2])
		if l == nil {
			return " " + sub[2] + " "
		}
		return stash(l)
	})

	s = brRe.ReplaceAllString(s, "\n")
	s = blockTagRe.ReplaceAllString(s, "\n\n")
	s = lineEdgeRe.ReplaceAllString(s, "\n")

	var blocks []Block
	for _, chunk := range paraSplit.Split(s, -1) {
		chunk = strings.Trim(chunk, " \n")
		if chunk == "" {
			continue
		}
		if m := markerRe.FindStringSubmatch(chunk); m != nil {
			idx, _ := strconv.Atoi(m[1])
			if idx < len(extracted) {
				blocks = append(blocks, extracted[idx])
			}
			continue
		}
		if p := parseParagraph(chunk); p != nil {
			blocks = append(blocks, p)
		}
	}

	if len(blocks) == 0 {
		return Placeholder()
	}
	return blocks
}

func parseTable(inner string) *Table {
	var rows [][]string
	width := 0
	for _, rm := range rowRe.FindAllStringSubmatch(inner, -1) {
		var row []string
		for _, cm := range cellRe.FindAllStringSubmatch(rm[1], -1) {
			row = append(row, StripTags(cm[1]))
		}
		if len(row) == 0 {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return &Table{Rows: rows, Header: true}
}

func parseList(ordered bool, inner string) *List {
	var items []string
	for _, im := range itemRe.FindAllStringSubmatch(inner, -1) {
		if text := StripTags(im[1]); text != "" {
			items = append(items, text)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return &List{Ordered: ordered, Items: items}
}

// parseParagraph tokenizes one paragraph chunk. "\n" in text marks a line
// break. Emphasis depth is counted so unbalanced tags never fail.
func parseParagraph(chunk string) *Paragraph {
	var (
		runs                []Run
		bold, italic, under int
		pendingBreak        bool
		raw                 atom.Atom
	)
	emit := func(text string) {
		r := Run{Text: text, Bold: bold > 0, Italic: italic > 0, Underline: under > 0, Break: pendingBreak}
		pendingBreak = false
		if n := len(runs); n > 0 && !r.Break && runs[n-1].sameStyle(r) {
			runs[n-1].Text += r.Text
			return
		}
		runs = append(runs, r)
	}

	z := html.NewTokenizer(strings.NewReader(chunk))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			if raw != 0 {
				continue
			}
			lines := strings.Split(string(z.Text()), "\n")
			for i, line := range lines {
				if i > 0 && len(runs) > 0 {
					pendingBreak = true
				}
				if line != "" {
					emit(line)
				}
			}
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if rawText[a] {
				if tt == html.StartTagToken {
					raw = a
				} else if raw == a {
					raw = 0
				}
				continue
			}
			delta := 1
			if tt == html.EndTagToken {
				delta = -1
			}
			switch a {
			case atom.B, atom.Strong:
				bold = max(0, bold+delta)
			case atom.I, atom.Em:
				italic = max(0, italic+delta)
			case atom.U, atom.Ins:
				under = max(0, under+delta)
			}
		}
	}

	runs = trimRuns(runs)
	if len(runs) == 0 {
		return nil
	}
	return &Paragraph{Runs: runs}
}

func trimRuns(runs []Run) []Run {
	out := runs[:0]
	for _, r := range runs {
		if r.Break || len(out) == 0 {
			r.Text = strings.TrimLeft(r.Text, " ")
		}
		if len(out) > 0 && r.Break {
			out[len(out)-1].Text = strings.TrimRight(out[len(out)-1].Text, " ")
		}
		if r.Text == "" && !r.Break {
			continue
		}
		out = append(out, r)
	}
	if n := len(out); n > 0 {
		out[n-1].Text = strings.TrimRight(out[n-1].Text, " ")
	}
	for len(out) > 0 && out[len(out)-1].Text == "" {
		out = out[:len(out)-1]
	}
	if len(out) > 0 {
		out[0].Break = false
	}
	return out
}

// StripTags returns the text content of an HTML fragment with entities
// decoded and whitespace collapsed.
func StripTags(fragment string) string {
	var (
		b   strings.Builder
		raw atom.Atom
	)
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			if raw == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case rawText[a] && tt == html.StartTagToken:
				raw = a
			case rawText[a] && tt == html.EndTagToken && raw == a:
				raw = 0
			case a == atom.Br && tt != html.EndTagToken:
				b.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}
