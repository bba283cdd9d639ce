package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/domkit/internal/config"
)

func TestSanitizeStripsActiveContent(t *testing.T) {
	p := Default()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "iframe",
			input: `<p>a</p><iframe src="https://example.com">x</iframe>`,
			want:  `<p>a</p>`,
		},
		{
			name:  "link",
			input: `<link rel="stylesheet" href="/x.css"><span>b</span>`,
			want:  `<span>b</span>`,
		},
		{
			name:  "script",
			input: `<div>c<script>alert(1)</script></div>`,
			want:  `<div>c</div>`,
		},
		{
			name:  "event handler",
			input: `<b onclick="steal()">d</b>`,
			want:  `<b>d</b>`,
		},
		{
			name:  "javascript url",
			input: `<a href="javascript:alert(1)">e</a>`,
			want:  `<a>e</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Sanitize(tt.input))
		})
	}
}

func TestSanitizeKeepsFixture(t *testing.T) {
	p := Default()
	input := "<div data-test=\"get-html\">\n<label id=\"testLabel\">Element.getHTML</label>\n</div>"
	assert.Equal(t, input, p.Sanitize(input))
}

func TestSanitizeAttributes(t *testing.T) {
	p := Default()

	assert.Equal(t,
		`<span class="a b" title="t">x</span>`,
		p.Sanitize(`<span class="a b" title="t" foo="bar">x</span>`))

	assert.Equal(t,
		`<a href="https://example.com/page">link</a>`,
		p.Sanitize(`<a href="https://example.com/page">link</a>`))

	assert.Equal(t,
		`<p style="color: red">s</p>`,
		p.Sanitize(`<p style="color: red; position: fixed">s</p>`))
}

func TestDenyWinsOverAllow(t *testing.T) {
	p := New(config.SanitizerConfig{
		AllowElements:  []string{"div", "span", "iframe"},
		DenyElements:   []string{"SPAN"},
		DataAttributes: true,
	})

	assert.True(t, p.Allows("div"))
	assert.False(t, p.Allows("span"))
	assert.False(t, p.Allows("iframe"))
	assert.False(t, p.Allows("p"))

	assert.Equal(t, `<div>ab</div>`, p.Sanitize(`<div><span>a</span><p>b</p></div>`))
	assert.Equal(t, ``, p.Sanitize(`<iframe>gone</iframe>`))
}

func TestDataAttributesToggle(t *testing.T) {
	on := New(config.SanitizerConfig{DataAttributes: true})
	off := New(config.SanitizerConfig{DataAttributes: false})

	input := `<div data-role="x">y</div>`
	assert.Equal(t, input, on.Sanitize(input))
	assert.Equal(t, `<div>y</div>`, off.Sanitize(input))
}

func TestComments(t *testing.T) {
	input := `<p>a<!-- note --></p>`

	assert.Equal(t, `<p>a</p>`, Default().Sanitize(input))

	keep := New(config.SanitizerConfig{Comments: true})
	assert.Equal(t, input, keep.Sanitize(input))
}

func TestSanitizeBytes(t *testing.T) {
	out := Default().SanitizeBytes([]byte(`<em>x</em><script>y</script>`))
	assert.Equal(t, `<em>x</em>`, string(out))
}

func TestEffectiveElements(t *testing.T) {
	set := effectiveElements(nil, []string{"table"})
	_, hasDiv := set["div"]
	_, hasTable := set["table"]
	_, hasScript := set["script"]
	assert.True(t, hasDiv)
	assert.False(t, hasTable)
	assert.False(t, hasScript)
}
