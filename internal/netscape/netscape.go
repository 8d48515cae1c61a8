// Package netscape reads and writes the Netscape bookmark file format, the
// HTML dialect every major browser uses for bookmark import and export.
//
// A file is a nested definition list:
//
//	<DL><p>
//	    <DT><H3>Folder</H3>
//	    <DL><p>
//	        <DT><A HREF="https://go.dev">Go</A>
//	    </DL><p>
//	    <DT><A HREF="https://example.com">Top-level link</A>
//	</DL><p>
package netscape

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Folder is a named group of links and subfolders. The root folder returned
// by Parse has no name.
type Folder struct {
	Name    string
	AddDate time.Time
	Folders []*Folder
	Links   []Link
}

type Link struct {
	Title   string
	URL     string
	AddDate time.Time
}

// Parse reads a bookmark file. The HTML parser is lenient, so malformed
// markup yields whatever structure could be recovered rather than an error.
func Parse(r io.Reader) (*Folder, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("netscape: parsing html: %w", err)
	}

	root := &Folder{}
	stack := []*Folder{root}
	var pending *Folder // folder whose <H3> was seen but whose <DL> was not

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			current := stack[len(stack)-1]
			switch n.Data {
			case "h3":
				f := &Folder{Name: strings.TrimSpace(textContent(n)), AddDate: addDate(n)}
				current.Folders = append(current.Folders, f)
				pending = f
				return

			case "a":
				pending = nil
				href := strings.TrimSpace(attr(n, "href"))
				if href == "" {
					return
				}
				current.Links = append(current.Links, Link{
					Title:   strings.TrimSpace(textContent(n)),
					URL:     href,
					AddDate: addDate(n),
				})
				return

			case "dl":
				if pending != nil {
					stack = append(stack, pending)
					pending = nil
					defer func() { stack = stack[:len(stack)-1] }()
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return root, nil
}

// Write renders root as a bookmark file. Root's own name is not written.
func Write(w io.Writer, root *Folder) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	bw.WriteString("<!-- This is an automatically generated file.\n     It will be read and overwritten.\n     DO NOT EDIT! -->\n")
	bw.WriteString(`<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">` + "\n")
	bw.WriteString("<TITLE>Bookmarks</TITLE>\n<H1>Bookmarks</H1>\n")

	writeList(bw, root, 0)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("netscape: writing: %w", err)
	}
	return nil
}

func writeList(bw *bufio.Writer, f *Folder, depth int) {
	indent := strings.Repeat("    ", depth)
	bw.WriteString(indent + "<DL><p>\n")

	for _, sub := range f.Folders {
		bw.WriteString(indent + "    <DT><H3" + dateAttr(sub.AddDate) + ">" + html.EscapeString(sub.Name) + "</H3>\n")
		writeList(bw, sub, depth+1)
	}
	for _, l := range f.Links {
		bw.WriteString(indent + `    <DT><A HREF="` + html.EscapeString(l.URL) + `"` + dateAttr(l.AddDate) + ">" +
			html.EscapeString(l.Title) + "</A>\n")
	}

	bw.WriteString(indent + "</DL><p>\n")
}

func dateAttr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return ` ADD_DATE="` + strconv.FormatInt(t.Unix(), 10) + `"`
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func addDate(n *html.Node) time.Time {
	secs, err := strconv.ParseInt(attr(n, "add_date"), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// Count returns the number of folders and links below f.
func Count(f *Folder) (folders, links int) {
	links = len(f.Links)
	for _, sub := range f.Folders {
		fo, li := Count(sub)
		folders += 1 + fo
		links += li
	}
	return folders, links
}
