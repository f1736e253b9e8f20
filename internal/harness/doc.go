// Package harness runs scripted scenarios against the full application and
// checks what each engine did.
//
// # Scenario Format
//
//	name: resize_then_close
//	description: "A resize repaints before the window closes"
//	title: demo
//	script:
//	  size: {width: 40, height: 10}
//	  steps:
//	    - resize: {width: 50, height: 12}
//	    - close: true
//	expect_commands:
//	  io: [SetTitle, WindowEvent, WindowEvent]
//	  render: [Resize, DrawUI]
//	expect_results:
//	  io: clean
//	assertions:
//	  - type: frames
//	    count: 1
//
// expect_commands lists, per engine, the exact sequence of commands applied.
// expect_results maps an engine to "clean" or "failed".
//
// # Assertion Types
//
//   - trace_contains: an entry with the given engine, stage and kind exists
//   - trace_order: kinds appear in order within one engine and stage
//   - trace_count: an engine recorded exactly count entries of a kind
//   - frames: count frames were presented; the last contains the given text
//
// # Deterministic Testing
//
// Every step settles before the next one is dispatched and frame ids come
// from a sequence generator, so per-engine traces are identical across runs.
// The global seq interleaves engines and is left out of golden snapshots.
package harness
