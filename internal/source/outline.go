package source

import "strings"

// outline builds a section tree from a flat stream of headings and
// paragraphs. A heading closes every open heading of the same or deeper
// level.
type outline struct {
	root  *Section
	stack []outlineEntry
	text  strings.Builder
}

type outlineEntry struct {
	section *Section
	level   int
}

func newOutline() *outline {
	root := &Section{}
	return &outline{root: root, stack: []outlineEntry{{section: root, level: 0}}}
}

func (o *outline) flush() {
	t := strings.TrimSpace(o.text.String())
	if t != "" {
		top := o.stack[len(o.stack)-1].section
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	o.text.Reset()
}

func (o *outline) heading(level int, title string) {
	o.flush()
	s := &Section{Heading: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].section
	parent.Children = append(parent.Children, s)
	o.stack = append(o.stack, outlineEntry{section: s, level: level})
}

func (o *outline) paragraph(t string) {
	if t == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(t)
}

// sections returns the finished outline. Text that appeared before the first
// heading becomes a leading untitled section.
func (o *outline) sections() []*Section {
	o.flush()
	out := o.root.Children
	if o.root.Text != "" {
		out = append([]*Section{{Text: o.root.Text}}, out...)
	}
	return out
}
