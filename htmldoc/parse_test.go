package htmldoc

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
	"github.com/rybkakrzy/importer-sub001/model"
)

func parseHTML(t *testing.T, src string) (*model.Document, []model.Warning) {
	t.Helper()
	doc, warnings, err := Parse(src, nil)
	require.NoError(t, err)
	return doc, warnings
}

func paragraphAt(t *testing.T, blocks []model.Block, i int) *model.Paragraph {
	t.Helper()
	require.Greater(t, len(blocks), i)
	p, ok := blocks[i].(*model.Paragraph)
	require.True(t, ok, "block %d is %s", i, blocks[i].Type())
	return p
}

func TestParse_HeadingsAndInlineFormatting(t *testing.T) {
	doc, warnings := parseHTML(t, `<h1>Title</h1><h3>Sub</h3>`+
		`<p>Hello <strong>bold</strong> and <em>it</em> <u>u</u> <s>s</s></p>`)
	assert.Empty(t, warnings)
	require.Len(t, doc.Blocks, 3)

	assert.Equal(t, model.HeadingStyleID(1), paragraphAt(t, doc.Blocks, 0).StyleID)
	assert.Equal(t, model.HeadingStyleID(3), paragraphAt(t, doc.Blocks, 1).StyleID)

	p := paragraphAt(t, doc.Blocks, 2)
	assert.Equal(t, "Hello bold and it u s", p.Text())
	require.Len(t, p.Runs, 8)
	assert.Equal(t, model.CharFormat{Bold: model.ToggleOn}, p.Runs[1].Format)
	assert.Equal(t, model.CharFormat{Italic: model.ToggleOn}, p.Runs[3].Format)
	assert.Equal(t, model.CharFormat{Underline: model.ToggleOn}, p.Runs[5].Format)
	assert.Equal(t, model.CharFormat{Strike: model.ToggleOn}, p.Runs[7].Format)
	assert.Equal(t, model.CharFormat{}, p.Runs[6].Format)
}

func TestParse_Whitespace(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"collapsed", "<p>  a \n  b  </p>", "a b"},
		{"across elements", "<p>x <b> y</b></p>", "x y"},
		{"pre", "<pre>  x  y\n z</pre>", "  x  y\n z"},
		{"pre-wrap style", `<p style="white-space:pre-wrap">a  b</p>`, "a  b"},
		{"line break", "<p>one <br> two</p>", "one\ntwo"},
		{"non-breaking space kept", "<p>a&nbsp;&nbsp;b</p>", "a\u00a0\u00a0b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := parseHTML(t, tt.src)
			assert.Equal(t, tt.want, paragraphAt(t, doc.Blocks, 0).Text())
		})
	}
}

func TestParse_StyledSpans(t *testing.T) {
	doc, _ := parseHTML(t, `<p>`+
		`<span style="color: red; font-size: 14pt; font-family: 'Times New Roman', serif; `+
		`text-decoration: line-through; font-weight: 700">t</span>`+
		`<font color="#00ff00" face="Arial" size="5">f</font>`+
		`<span style="font-weight:normal;font-style:italic">n</span>`+
		`</p>`)

	p := paragraphAt(t, doc.Blocks, 0)
	require.Len(t, p.Runs, 3)
	assert.Equal(t, model.CharFormat{
		Bold: model.ToggleOn, Strike: model.ToggleOn, Color: "FF0000", Size: 14, Font: "Times New Roman",
	}, p.Runs[0].Format)
	assert.Equal(t, model.CharFormat{Color: "00FF00", Size: 18, Font: "Arial"}, p.Runs[1].Format)
	assert.Equal(t, model.CharFormat{Bold: model.ToggleOff, Italic: model.ToggleOn}, p.Runs[2].Format)
}

func TestParse_ParagraphFormatting(t *testing.T) {
	doc, _ := parseHTML(t, `<p style="text-align:center;margin-left:18pt;text-indent:-9pt">c</p>`+
		`<div style="text-align:right"><p>r</p>loose</div>`+
		`<blockquote>q</blockquote>`)
	require.Len(t, doc.Blocks, 4)

	assert.Equal(t, model.ParaFormat{Alignment: model.AlignCenter, IndentLeft: 18, FirstLine: -9},
		paragraphAt(t, doc.Blocks, 0).Format)
	assert.Equal(t, model.AlignRight, paragraphAt(t, doc.Blocks, 1).Format.Alignment)

	loose := paragraphAt(t, doc.Blocks, 2)
	assert.Equal(t, "loose", loose.Text())
	assert.Equal(t, model.AlignRight, loose.Format.Alignment)

	assert.Equal(t, 36.0, paragraphAt(t, doc.Blocks, 3).Format.IndentLeft)
}

func TestParse_Lists(t *testing.T) {
	doc, _ := parseHTML(t, `<ul><li>a</li><li>b<ul><li>c</li></ul></li></ul>`+
		`<ol><li>one</li><li>two</li></ol>`)
	require.Len(t, doc.Blocks, 5)

	tests := []struct {
		text    string
		ordered bool
		level   int
		marker  string
	}{
		{"a", false, 0, "•"},
		{"b", false, 0, "•"},
		{"c", false, 1, "○"},
		{"one", true, 0, "1."},
		{"two", true, 0, "2."},
	}
	for i, tt := range tests {
		p := paragraphAt(t, doc.Blocks, i)
		assert.Equal(t, tt.text, p.Text())
		assert.Equal(t, model.StyleListParagraph, p.StyleID)
		require.NotNil(t, p.List, tt.text)
		assert.Equal(t, model.ListInfo{Ordered: tt.ordered, Level: tt.level, Marker: tt.marker}, *p.List)
	}
}

func TestParse_Tables(t *testing.T) {
	doc, _ := parseHTML(t, `<table>
  <caption>Cap</caption>
  <thead><tr><th>H</th><th>I</th></tr></thead>
  <tbody>
    <tr><td colspan="2" rowspan="x">z</td></tr>
    <tr><th>k</th><td><p>p1</p><p>p2</p></td></tr>
    <tr></tr>
  </tbody>
</table>`)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "Cap", paragraphAt(t, doc.Blocks, 0).Text())

	table, ok := doc.Blocks[1].(*model.Table)
	require.True(t, ok)
	require.Len(t, table.Rows, 3)

	assert.True(t, table.Rows[0].IsHeader)
	assert.True(t, table.Rows[0].Cells[1].IsHeader)

	wide := table.Rows[1].Cells[0]
	assert.Equal(t, 2, wide.ColSpan)
	assert.Equal(t, 1, wide.RowSpan)
	assert.Equal(t, "z", model.BlocksText(wide.Blocks))

	last := table.Rows[2]
	assert.False(t, last.IsHeader)
	assert.True(t, last.Cells[0].IsHeader)
	assert.False(t, last.Cells[1].IsHeader)
	assert.Len(t, last.Cells[1].Blocks, 2)
}

func TestParse_Images(t *testing.T) {
	uri := pngDataURI(t, 8, 4)
	doc, warnings := parseHTML(t, `<p>before<img src="`+uri+`" alt="pic">after</p>`+
		`<p><img src="`+uri+`" width="16"></p>`)

	require.Len(t, doc.Media, 1)
	asset := doc.Media[0]
	assert.Equal(t, "image/png", asset.MIMEType)
	assert.Equal(t, 8, asset.Width)
	assert.Equal(t, 4, asset.Height)

	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, "before", paragraphAt(t, doc.Blocks, 0).Text())
	img := paragraphAt(t, doc.Blocks, 1).Image
	require.NotNil(t, img)
	assert.Equal(t, asset.ID, img.AssetID)
	assert.Equal(t, "pic", img.AltText)
	assert.Equal(t, "after", paragraphAt(t, doc.Blocks, 2).Text())

	second := paragraphAt(t, doc.Blocks, 3).Image
	require.NotNil(t, second)
	assert.Equal(t, asset.ID, second.AssetID)
	assert.Equal(t, 16, second.Width)

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnImageSplit, warnings[0].Code)
}

func TestParse_RejectedImages(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code model.WarningCode
		kept bool
	}{
		{"remote", "https://example.com/a.png", model.WarnUnsupportedImage, false},
		{"file", "file:///etc/passwd", model.WarnUnsupportedImage, false},
		{"bad base64", "data:image/png;base64,!!!", model.WarnInvalidImage, false},
		{"not an image", "data:text/plain;base64,aGk=", model.WarnInvalidImage, false},
		{"unknown format", "data:image/png;base64,aGVsbG8=", model.WarnInvalidImage, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, warnings := parseHTML(t, `<p><img src="`+tt.src+`"></p>`)
			require.Len(t, warnings, 1)
			assert.Equal(t, tt.code, warnings[0].Code)
			if tt.kept {
				assert.Len(t, doc.Media, 1)
				return
			}
			assert.Empty(t, doc.Media)
			require.Len(t, doc.Blocks, 1)
			assert.True(t, paragraphAt(t, doc.Blocks, 0).IsEmpty())
		})
	}
}

func TestParse_Links(t *testing.T) {
	doc, warnings := parseHTML(t, `<p>see <a href="https://example.com">site</a> or <a href="#top">top</a></p>`)
	assert.Equal(t, "see site or top", paragraphAt(t, doc.Blocks, 0).Text())
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnLinkDropped, warnings[0].Code)
}

func TestParse_LongLinkTargetTruncated(t *testing.T) {
	href := "https://example.com/a" + strings.Repeat("ż", 40)
	_, warnings := parseHTML(t, `<p><a href="`+href+`">site</a></p>`)

	require.Len(t, warnings, 1)
	assert.True(t, utf8.ValidString(warnings[0].Message))
	assert.NotContains(t, warnings[0].Message, `\x`)
	assert.Contains(t, warnings[0].Message, "…")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "abc", "abc"},
		{"ascii", strings.Repeat("a", 70), strings.Repeat("a", 64) + "…"},
		{"two-byte split", "a" + strings.Repeat("ż", 40), "a" + strings.Repeat("ż", 31) + "…"},
		{"four-byte split", "ab" + strings.Repeat("😀", 20), "ab" + strings.Repeat("😀", 15) + "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestParse_SkippedAndUnknownElements(t *testing.T) {
	doc, warnings := parseHTML(t, `<html><head><title>T</title><style>p{color:red}</style></head>`+
		`<body><script>alert(1)</script><p>a<custom-tag>b</custom-tag><sup>c</sup></p><noscript>n</noscript></body></html>`)
	assert.Empty(t, warnings)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "abc", doc.PlainText())
}

func TestParse_Metadata(t *testing.T) {
	src := `<html><head><title> Head title </title>` +
		`<meta name="author" content="Anna Nowak"><meta name="description" content="Notes"></head>` +
		`<body><p>x</p></body></html>`

	doc, _ := parseHTML(t, src)
	assert.Equal(t, "Head title", doc.Metadata.Title)
	assert.Equal(t, "Anna Nowak", doc.Metadata.Creator)
	assert.Equal(t, "Notes", doc.Metadata.Description)

	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	doc, _, err := Parse(src, &model.Metadata{Title: "Override", Created: created})
	require.NoError(t, err)
	assert.Equal(t, "Override", doc.Metadata.Title)
	assert.Equal(t, "Anna Nowak", doc.Metadata.Creator)
	assert.Equal(t, created, doc.Metadata.Created)
}

func TestParse_EmptyInput(t *testing.T) {
	doc, warnings := parseHTML(t, "")
	assert.Empty(t, warnings)
	assert.Empty(t, doc.Blocks)
	assert.True(t, doc.IsEmpty())
	require.NotNil(t, doc.Styles)

	doc, _ = parseHTML(t, "<p><br></p>")
	require.Len(t, doc.Blocks, 1)
	assert.True(t, paragraphAt(t, doc.Blocks, 0).IsEmpty())
}

func TestParse_DepthLimit(t *testing.T) {
	src := strings.Repeat("<div>", 40) + "deep" + strings.Repeat("</div>", 40)

	_, _, err := Parse(src, nil, WithLimits(limits.Limits{MaxDepth: 20}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, docerr.ErrResourceLimitExceeded))

	doc, _, err := Parse(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "deep", doc.PlainText())
}

func TestParseBlocks(t *testing.T) {
	doc := newTestDocument()
	doc.AddMedia(&model.MediaAsset{MIMEType: "image/png", Data: pngBytes(t, 1, 1)})

	blocks, warnings, err := ParseBlocks(doc, `<p>Header <img src="`+pngDataURI(t, 2, 2)+`"></p>`)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	require.Len(t, blocks, 2)
	require.Len(t, doc.Media, 2)
	assert.Equal(t, "image2", doc.Media[1].ID)
	assert.Equal(t, "image2", paragraphAt(t, blocks, 1).Image.AssetID)

	deep := strings.Repeat("<div>", 30) + `<img src="` + pngDataURI(t, 2, 2) + `">` + strings.Repeat("</div>", 30)
	_, _, err = ParseBlocks(doc, deep, WithLimits(limits.Limits{MaxDepth: 10}))
	require.Error(t, err)
	assert.Len(t, doc.Media, 2)
}
