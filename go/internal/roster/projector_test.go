package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/racedash/go/internal/models"
)

func TestProjectOrdersByID(t *testing.T) {
	drivers := models.Drivers{
		"b": {Name: "Second", CreatedAt: 1},
		"a": {Name: "First", CreatedAt: 99},
		"c": {Name: "Third", CreatedAt: 50},
	}

	rows := Project(drivers)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, "First", rows[0].Name)
}

func TestProjectUnnamedFallback(t *testing.T) {
	rows := Project(models.Drivers{"x": {Team: "Ferrari"}})
	require.Len(t, rows, 1)
	assert.Equal(t, UnnamedDriver, rows[0].Name)
	assert.Equal(t, "Ferrari", rows[0].Team)
}

func TestRenderHTMLEmptyIsPlaceholder(t *testing.T) {
	for _, mode := range []Mode{ModeAdmin, ModeViewer} {
		html := NewProjector(mode).RenderHTML(models.Drivers{})
		assert.Equal(t, 1, strings.Count(html, Placeholder))
		assert.NotContains(t, html, `class="driver"`)
	}
}

func TestRenderHTMLEscapesUserData(t *testing.T) {
	drivers := models.Drivers{
		"k1": {Name: "<script>alert(1)</script>", Team: `"Red" & 'Bull'`, Car: "<b>"},
	}

	html := NewProjector(ModeAdmin).RenderHTML(drivers)
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, html, "&quot;Red&quot; &amp; &#39;Bull&#39;")
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>")
}

func TestRenderHTMLDeleteOnlyInAdmin(t *testing.T) {
	drivers := models.Drivers{"a": {Name: "A"}, "b": {Name: "B"}}

	admin := NewProjector(ModeAdmin).RenderHTML(drivers)
	assert.Equal(t, 2, strings.Count(admin, `data-action="del"`))
	assert.Contains(t, admin, `data-id="a"`)
	assert.Less(t, strings.Index(admin, `data-id="a"`), strings.Index(admin, `data-id="b"`))

	viewer := NewProjector(ModeViewer).RenderHTML(drivers)
	assert.NotContains(t, viewer, "data-action")
	assert.Equal(t, 2, strings.Count(viewer, `class="driver"`))
}

func TestRenderText(t *testing.T) {
	p := NewProjector(ModeViewer)
	assert.Equal(t, []string{Placeholder}, p.RenderText(nil))

	lines := p.RenderText(models.Drivers{
		"2": {Name: "Prost", Team: "McLaren", Car: "MP4/5"},
		"1": {Name: "Senna", Team: "McLaren", Car: "MP4/4"},
	})
	assert.Equal(t, []string{"Senna  McLaren • MP4/4", "Prost  McLaren • MP4/5"}, lines)

	admin := NewProjector(ModeAdmin).RenderText(models.Drivers{"1": {Name: "Senna"}})
	assert.Equal(t, []string{"Senna   •   [1]"}, admin)
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#39;", EscapeHTML(`&<>"'`))
	assert.Equal(t, "plain", EscapeHTML("plain"))
	assert.Equal(t, "&amp;amp;", EscapeHTML("&amp;"))
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeAdmin, ParseMode(" Admin "))
	assert.Equal(t, ModeViewer, ParseMode("viewer"))
	assert.Equal(t, ModeViewer, ParseMode(""))
}
