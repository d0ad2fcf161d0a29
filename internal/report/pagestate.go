package report

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageState is what the captured markup says about the editor at abort
// time. Only static attributes are read: computed styles are not
// available after the fact.
type PageState struct {
	Title      string
	ActiveStep string
	Toasts     []string
	OpenModals []string
}

// Empty reports whether nothing was recognised.
func (s PageState) Empty() bool {
	return s.Title == "" && s.ActiveStep == "" && len(s.Toasts) == 0 && len(s.OpenModals) == 0
}

// ParsePageState scans pageHTML for the document title, the active wizard
// step, toast messages and modals not marked hidden.
func ParsePageState(pageHTML string) PageState {
	var st PageState
	if strings.TrimSpace(pageHTML) == "" {
		return st
	}
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return st
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			id := attr(n, "id")
			switch {
			case n.DataAtom == atom.Title && st.Title == "":
				st.Title = nodeText(n)
			case isStep(id) && hasClass(n, "active") && st.ActiveStep == "":
				st.ActiveStep = id
			case hasClass(n, "toast"):
				if t := nodeText(n); t != "" {
					st.Toasts = append(st.Toasts, t)
				}
			case hasClass(n, "modal") && id != "" && !hidden(n):
				st.OpenModals = append(st.OpenModals, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return st
}

// isStep matches the wizard panel ids step1, step2, ...
func isStep(id string) bool {
	rest, ok := strings.CutPrefix(id, "step")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hidden(n *html.Node) bool {
	if hasClass(n, "hidden") {
		return true
	}
	style := strings.ReplaceAll(attr(n, "style"), " ", "")
	return strings.Contains(style, "display:none")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText is the whitespace-collapsed text content of n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
