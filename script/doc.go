// Package script evaluates JavaScript against an *html.Node tree.
//
// A Runtime wraps one goja VM. Each run binds a fresh document object to the
// tree containing the given node, so scripts observe and mutate the caller's
// nodes directly. Runs are serialized; a Runtime may be shared.
//
// Features:
//   - Dangerous globals (require, process, module, exports) removed
//   - Console output captured per run
//   - setTimeout and queueMicrotask callbacks drained after the main script
//   - Timeout and context cancellation interrupt the VM
//
// Example Usage:
//
//	rt, err := script.New(script.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//	res, err := rt.Execute(ctx, `document.getElementById("title").textContent = "hi"`, root)
package script
