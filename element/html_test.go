package element

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/dom"
	"github.com/GriffinCanCode/domkit/script"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, s script.Script, document *html.Node) (*script.Result, error) {
	args := m.Called(ctx, s, document)
	result, _ := args.Get(0).(*script.Result)
	return result, args.Error(1)
}

func newBody(t *testing.T) *html.Node {
	t.Helper()
	body := dom.Body(dom.NewDocument())
	require.NotNil(t, body)
	return body
}

var disallowed = regexp.MustCompile(`<iframe|<link|<script`)

const getHTMLFixture = `<div data-test="get-html">
<label id="testLabel">Element.getHTML</label>
</div>`

func TestSetHTMLReplacesContent(t *testing.T) {
	body := newBody(t)
	require.NoError(t, dom.SetInnerHTML(body, "<p>old</p>"))

	require.NoError(t, SetHTML(body, "<strong>Hello, World!</strong>", false))

	markup, err := dom.InnerHTML(body)
	require.NoError(t, err)
	assert.Equal(t, "<strong>Hello, World!</strong>", markup)
}

func TestSetHTMLSanitizes(t *testing.T) {
	body := newBody(t)

	require.NoError(t, SetHTML(body, `<p onclick="steal()">text</p>
<iframe src="https://example.com"></iframe>
<link rel="stylesheet" href="https://example.com/x.css">
<script>alert(1)</script>`, false))

	markup, err := dom.InnerHTML(body)
	require.NoError(t, err)
	assert.NotRegexp(t, disallowed, markup)
	assert.NotContains(t, markup, "onclick")
	assert.NotContains(t, markup, "alert")
	assert.Contains(t, markup, "<p>text</p>")
}

func TestSetHTMLEvaluatesModuleScript(t *testing.T) {
	body := newBody(t)

	err := SetHTML(body, `<div>
                <label id="testLabel">Test</label>
            </div>
            <script type="module">
                document.querySelector('#testLabel').innerText = 'Hello, World!';
            </script>`, true)
	require.NoError(t, err)

	label := dom.ElementByID(body, "testLabel")
	require.NotNil(t, label)
	assert.Equal(t, "Hello, World!", dom.TextContent(label))

	// The script is live in the tree
	scripts := dom.ElementsByTagName(body, "script")
	require.Len(t, scripts, 1)
	typ, _ := dom.Attribute(scripts[0], "type")
	assert.Equal(t, "module", typ)
}

func TestGetHTMLSanitizesAtReadTime(t *testing.T) {
	body := newBody(t)

	require.NoError(t, SetHTML(body, `<div data-test="get-html">
<label id="testLabel">Element.getHTML</label>
</div>
<iframe src="https://google.com" frameborder="5"></iframe>
<link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css" rel="stylesheet" crossorigin="anonymous">
<script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js" crossorigin="anonymous"></script>`, true))

	live, err := dom.QuerySelector(body, "iframe,link,script")
	require.NoError(t, err)
	assert.NotNil(t, live)

	content, err := GetHTML(body)
	require.NoError(t, err)
	assert.NotRegexp(t, disallowed, content)
	assert.Equal(t, getHTMLFixture, strings.TrimRight(content, " \t\r\n"))
}

func TestGetHTMLReflectsCurrentTree(t *testing.T) {
	body := newBody(t)
	require.NoError(t, SetHTML(body, "<p>first</p>", false))

	// Mutations after the write show up, sanitized
	require.NoError(t, dom.Append(body, dom.NewElement("iframe")))
	require.NoError(t, SetText(dom.Children(body)[0], "second"))

	content, err := GetHTML(body)
	require.NoError(t, err)
	assert.Equal(t, "<p>second</p>", content)
}

func TestSetHTMLNilTarget(t *testing.T) {
	assert.ErrorIs(t, SetHTML(nil, "<p></p>", false), ErrInvalidArgument)

	_, err := GetHTML(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetHTMLScriptSelection(t *testing.T) {
	runner := new(mockRunner)
	ops := New(Options{Scripts: runner})
	body := newBody(t)

	runner.On("Run", mock.Anything, mock.MatchedBy(func(s script.Script) bool {
		return s.Source == "classic()" && !s.Module
	}), mock.Anything).Return(&script.Result{ID: "one"}, nil).Once()
	runner.On("Run", mock.Anything, mock.MatchedBy(func(s script.Script) bool {
		return s.Source == "mod()" && s.Module
	}), mock.Anything).Return(&script.Result{ID: "two"}, nil).Once()
	runner.On("Run", mock.Anything, mock.MatchedBy(func(s script.Script) bool {
		return s.Source == "legacy()" && !s.Module
	}), mock.Anything).Return(&script.Result{ID: "three"}, nil).Once()

	err := ops.SetHTML(context.Background(), body, `<p>x</p>
<script>classic()</script>
<script type="module">mod()</script>
<script type="application/ld+json">{"@type": "Thing"}</script>
<script src="/remote.js"></script>
<div><script type="text/javascript; charset=utf-8">legacy()</script></div>`, true)
	require.NoError(t, err)

	runner.AssertExpectations(t)
	runner.AssertNumberOfCalls(t, "Run", 3)

	// Every script is re-inserted, evaluated or not
	assert.Len(t, dom.ElementsByTagName(body, "script"), 5)
}

func TestSetHTMLScriptOrderAndDocument(t *testing.T) {
	runner := new(mockRunner)
	ops := New(Options{Scripts: runner})
	body := newBody(t)

	var order []string
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			s := args.Get(1).(script.Script)
			document := args.Get(2).(*html.Node)
			order = append(order, s.Source)
			assert.Equal(t, dom.Root(body), dom.Root(document))
		}).
		Return(&script.Result{}, nil)

	require.NoError(t, ops.SetHTML(context.Background(), body,
		`<script>a()</script><p><script>b()</script></p><script>c()</script>`, true))
	assert.Equal(t, []string{"a()", "b()", "c()"}, order)
}

func TestSetHTMLScriptFailuresAreJoined(t *testing.T) {
	runner := new(mockRunner)
	ops := New(Options{Scripts: runner})
	body := newBody(t)

	boom := errors.New("boom")
	runner.On("Run", mock.Anything, mock.MatchedBy(func(s script.Script) bool {
		return s.Source == "fail()"
	}), mock.Anything).Return(&script.Result{ID: "exec-1"}, boom)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(s script.Script) bool {
		return s.Source == "ok()"
	}), mock.Anything).Return(&script.Result{ID: "exec-2"}, nil)

	err := ops.SetHTML(context.Background(), body,
		`<p>kept</p><script>fail()</script><script>ok()</script>`, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, 0, scriptErr.Index)
	assert.Equal(t, "exec-1", scriptErr.ExecID)
	assert.Contains(t, err.Error(), "script 0 (exec-1) failed")

	runner.AssertNumberOfCalls(t, "Run", 2)
	assert.Len(t, dom.ElementsByTagName(body, "p"), 1)
}

func TestSetHTMLRealScriptError(t *testing.T) {
	body := newBody(t)

	err := SetHTML(body, `<p id="p">x</p>
<script>throw new Error('broken');</script>
<script>document.getElementById('p').textContent = 'after';</script>`, true)
	require.Error(t, err)

	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.NotEmpty(t, scriptErr.ExecID)
	assert.Equal(t, "after", dom.TextContent(dom.ElementByID(body, "p")))
}

func TestSetHTMLScopePerCall(t *testing.T) {
	const markup = `<p id="p"></p>
<script>const label = 'x'; document.getElementById('p').textContent = label;</script>`

	// Same markup on unrelated documents
	for i := 0; i < 2; i++ {
		body := newBody(t)
		require.NoError(t, SetHTML(body, markup, true), "document %d", i)
		assert.Equal(t, "x", dom.TextContent(dom.ElementByID(body, "p")), "document %d", i)
	}
}

func TestSetHTMLGlobalsStayInCall(t *testing.T) {
	first := newBody(t)
	require.NoError(t, SetHTML(first, `<p id="p"></p>
<script>var secret = 'from-first';</script>
<script>document.getElementById('p').textContent = secret;</script>`, true))
	assert.Equal(t, "from-first", dom.TextContent(dom.ElementByID(first, "p")))

	second := newBody(t)
	require.NoError(t, SetHTML(second, `<p id="p"></p>
<script>document.getElementById('p').textContent = typeof secret;</script>`, true))
	assert.Equal(t, "undefined", dom.TextContent(dom.ElementByID(second, "p")))
}

func TestSetHTMLWithoutScriptsNeverRuns(t *testing.T) {
	runner := new(mockRunner)
	ops := New(Options{Scripts: runner})

	require.NoError(t, ops.SetHTML(context.Background(), newBody(t), `<script>x()</script>`, false))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		typ  string
		set  bool
		want scriptKind
	}{
		{set: false, want: classicScript},
		{typ: "", set: true, want: classicScript},
		{typ: "text/javascript", set: true, want: classicScript},
		{typ: "Application/JavaScript", set: true, want: classicScript},
		{typ: "text/javascript; charset=utf-8", set: true, want: classicScript},
		{typ: " module ", set: true, want: moduleScript},
		{typ: "application/json", set: true, want: dataBlock},
		{typ: "text/template", set: true, want: dataBlock},
		{typ: "not a type", set: true, want: dataBlock},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			n := dom.NewElement("script")
			if tt.set {
				dom.SetAttribute(n, "type", tt.typ)
			}
			assert.Equal(t, tt.want, kindOf(n))
		})
	}
}

func TestRecreateScript(t *testing.T) {
	nodes, err := dom.ParseFragment(nil, `<script type="module" data-x="1">run()</script>`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	fresh := recreateScript(nodes[0])
	assert.NotSame(t, nodes[0], fresh)
	assert.Nil(t, fresh.Parent)

	markup, err := dom.OuterHTML(fresh)
	require.NoError(t, err)
	assert.Equal(t, `<script type="module" data-x="1">run()</script>`, markup)
}
