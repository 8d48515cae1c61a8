package netscape

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const browserExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file. -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000" LAST_MODIFIED="1700000001">Work</H3>
    <DL><p>
        <DT><A HREF="https://go.dev" ADD_DATE="1700000100">The Go <b>Programming</b> Language</A>
        <DT><H3>Reading</H3>
        <DL><p>
            <DT><A HREF="https://research.swtch.com">research!rsc</A>
        </DL><p>
    </DL><p>
    <DT><H3>Empty</H3>
    <DL><p>
    </DL><p>
    <DT><A HREF="https://example.com/?a=1&amp;b=2">Example &amp; Co</A>
    <DT><A>no href is skipped</A>
</DL><p>
`

func TestParse_BrowserExport(t *testing.T) {
	root, err := Parse(strings.NewReader(browserExport))
	require.NoError(t, err)

	require.Len(t, root.Folders, 2)
	work := root.Folders[0]
	assert.Equal(t, "Work", work.Name)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), work.AddDate)

	require.Len(t, work.Links, 1)
	assert.Equal(t, "https://go.dev", work.Links[0].URL)
	assert.Equal(t, "The Go Programming Language", work.Links[0].Title)

	require.Len(t, work.Folders, 1)
	reading := work.Folders[0]
	assert.Equal(t, "Reading", reading.Name)
	require.Len(t, reading.Links, 1)
	assert.Equal(t, "https://research.swtch.com", reading.Links[0].URL)

	assert.Equal(t, "Empty", root.Folders[1].Name)
	assert.Empty(t, root.Folders[1].Links)

	require.Len(t, root.Links, 1)
	assert.Equal(t, "https://example.com/?a=1&b=2", root.Links[0].URL)
	assert.Equal(t, "Example & Co", root.Links[0].Title)

	folders, links := Count(root)
	assert.Equal(t, 3, folders)
	assert.Equal(t, 3, links)
}

func TestParse_FolderWithoutList(t *testing.T) {
	const doc = `<DL><p>
<DT><H3>Lonely</H3>
<DT><A HREF="https://a.example">A</A>
</DL><p>`

	root, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, root.Folders, 1)
	assert.Empty(t, root.Folders[0].Links)
	require.Len(t, root.Links, 1, "link after a folder with no list stays at the outer level")
}

func TestParse_NotBookmarks(t *testing.T) {
	root, err := Parse(strings.NewReader("just some text"))
	require.NoError(t, err)
	assert.Empty(t, root.Folders)
	assert.Empty(t, root.Links)
}

func TestWriteParse_RoundTrip(t *testing.T) {
	added := time.Unix(1700000000, 0).UTC()
	in := &Folder{
		Folders: []*Folder{{
			Name:    `Tools <& "friends">`,
			AddDate: added,
			Folders: []*Folder{{Name: "Nested", Links: []Link{{Title: "Deep", URL: "https://deep.example"}}}},
			Links:   []Link{{Title: "Go", URL: "https://go.dev/?q=a&r=b", AddDate: added}},
		}},
		Links: []Link{{Title: "Root link", URL: "https://root.example"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "<!DOCTYPE NETSCAPE-Bookmark-file-1>"))
	assert.Contains(t, buf.String(), `ADD_DATE="1700000000"`)

	out, err := Parse(&buf)
	require.NoError(t, err)

	require.Len(t, out.Folders, 1)
	assert.Equal(t, `Tools <& "friends">`, out.Folders[0].Name)
	assert.Equal(t, added, out.Folders[0].AddDate)
	require.Len(t, out.Folders[0].Links, 1)
	assert.Equal(t, "https://go.dev/?q=a&r=b", out.Folders[0].Links[0].URL)
	require.Len(t, out.Folders[0].Folders, 1)
	assert.Equal(t, "Nested", out.Folders[0].Folders[0].Name)
	require.Len(t, out.Folders[0].Folders[0].Links, 1)
	require.Len(t, out.Links, 1)
	assert.Equal(t, "Root link", out.Links[0].Title)
}
