package element

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/dom"
	"github.com/GriffinCanCode/domkit/internal/monitoring"
	"github.com/GriffinCanCode/domkit/script"
)

// scriptKind classifies a <script> by its type attribute
type scriptKind int

const (
	classicScript scriptKind = iota
	moduleScript
	dataBlock
)

// javascriptTypes are the MIME essences browsers evaluate as classic scripts
var javascriptTypes = map[string]struct{}{
	"application/ecmascript":   {},
	"application/javascript":   {},
	"application/x-ecmascript": {},
	"application/x-javascript": {},
	"text/ecmascript":          {},
	"text/javascript":          {},
	"text/javascript1.0":       {},
	"text/javascript1.1":       {},
	"text/javascript1.2":       {},
	"text/javascript1.3":       {},
	"text/javascript1.4":       {},
	"text/javascript1.5":       {},
	"text/jscript":             {},
	"text/livescript":          {},
	"text/x-ecmascript":        {},
	"text/x-javascript":        {},
}

func kindOf(n *html.Node) scriptKind {
	typ, ok := dom.Attribute(n, "type")
	typ = strings.TrimSpace(typ)
	if !ok || typ == "" {
		return classicScript
	}
	if strings.EqualFold(typ, "module") {
		return moduleScript
	}
	essence, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return dataBlock
	}
	if _, ok := javascriptTypes[essence]; ok {
		return classicScript
	}
	return dataBlock
}

// SetHTML replaces target's children with the sanitized form of markup.
//
// With allowScripts, every <script> of the original markup is then re-created,
// appended to target and evaluated in document order with target's tree as
// the document. Scripts with a src attribute and data blocks are appended but
// not evaluated. A failing script does not stop later ones; failures are
// returned joined as *ScriptError values and the new content is kept.
func (o *Ops) SetHTML(ctx context.Context, target *html.Node, markup string, allowScripts bool) error {
	if target == nil {
		return invalid("setHTML", "target node is nil")
	}

	clean := o.sanitizer.Sanitize(markup)
	o.metrics.RecordSanitize(monitoring.OpSet)
	if err := dom.SetInnerHTML(target, clean); err != nil {
		return fmt.Errorf("failed to set HTML: %w", err)
	}
	o.logger.Debug("Replaced content",
		zap.String("tag", target.Data),
		zap.Int("input_bytes", len(markup)),
		zap.Int("sanitized_bytes", len(clean)))

	if !allowScripts {
		return nil
	}
	return o.reinsertScripts(ctx, target, markup)
}

// reinsertScripts appends fresh copies of the scripts found in markup to
// target and evaluates them. The scripts of one call share a global scope
// that no other call sees.
func (o *Ops) reinsertScripts(ctx context.Context, target *html.Node, markup string) error {
	nodes, err := dom.ParseFragment(target, markup)
	if err != nil {
		return fmt.Errorf("failed to parse scripts: %w", err)
	}

	var scripts []*html.Node
	for _, n := range nodes {
		dom.Walk(n, func(d *html.Node) bool {
			if dom.IsElement(d, "script") {
				scripts = append(scripts, d)
			}
			return true
		})
	}
	if len(scripts) == 0 {
		return nil
	}

	var (
		runner  ScriptRunner
		release func()
		errs    []error
	)
	defer func() {
		if release != nil {
			release()
		}
	}()

	for i, original := range scripts {
		fresh := recreateScript(original)
		if err := dom.Append(target, fresh); err != nil {
			errs = append(errs, &ScriptError{Index: i, Cause: err})
			continue
		}

		if src, ok := dom.Attribute(fresh, "src"); ok {
			o.logger.Debug("Skipping external script", zap.Int("index", i), zap.String("src", src))
			o.metrics.RecordScript(monitoring.StatusSkipped, 0)
			continue
		}
		kind := kindOf(fresh)
		if kind == dataBlock {
			o.metrics.RecordScript(monitoring.StatusSkipped, 0)
			continue
		}

		if runner == nil {
			runner, release, err = o.session(ctx)
			if err != nil {
				errs = append(errs, &ScriptError{Index: i, Cause: err})
				continue
			}
		}
		if err := o.evaluate(ctx, runner, i, fresh, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *Ops) evaluate(ctx context.Context, runner ScriptRunner, index int, n *html.Node, kind scriptKind) error {
	start := time.Now()
	result, err := runner.Run(ctx, script.Script{
		Name:   fmt.Sprintf("inline-script-%d", index),
		Source: dom.TextContent(n),
		Module: kind == moduleScript,
	}, n)
	duration := time.Since(start)

	var execID string
	if result != nil {
		execID = result.ID
		duration = result.Duration
	}
	if err != nil {
		o.metrics.RecordScript(monitoring.StatusError, duration)
		o.logger.Warn("Script failed",
			zap.Int("index", index),
			zap.String("exec_id", execID),
			zap.Error(err))
		return &ScriptError{Index: index, ExecID: execID, Cause: err}
	}

	o.metrics.RecordScript(monitoring.StatusOK, duration)
	o.logger.Debug("Script evaluated",
		zap.Int("index", index),
		zap.String("exec_id", execID),
		zap.Duration("duration", duration))
	return nil
}

// recreateScript returns a new script element with the attributes and source
// of n. Parsed scripts are inert, fresh ones are not.
func recreateScript(n *html.Node) *html.Node {
	fresh := dom.NewElement("script")
	for _, a := range n.Attr {
		dom.SetAttribute(fresh, a.Key, a.Val)
	}
	if text := dom.TextContent(n); text != "" {
		dom.SetTextContent(fresh, text)
	}
	return fresh
}

// GetHTML serializes n's current children and sanitizes the result, so the
// output never carries disallowed elements even when they are live in the tree.
func (o *Ops) GetHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", invalid("getHTML", "node is nil")
	}
	raw, err := dom.InnerHTML(n)
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	o.metrics.RecordSanitize(monitoring.OpGet)
	return o.sanitizer.Sanitize(raw), nil
}
