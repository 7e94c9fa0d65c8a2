// Package errors provides structured, actionable errors for the resume
// toolchain.
//
// Every failure of the snapshot and resume pipelines is reported as an *Error
// carrying a registered code. The code tells callers which stage failed and
// lets them match errors with errors.Is regardless of the detail text:
//
//	if errors.Is(err, resume.ErrSnapshotTooLarge) { ... }
//
// # Error Categories
//
//   - snapshot: building or emitting a snapshot on the producing host
//   - version: snapshot format version checks
//   - resolution: binding snapshot nodes and handlers to the document
//   - resume: parsing, restoring and timing out on the consuming host
//   - config: loading resume.yaml
//   - cli: resumectl input errors
//
// # Usage
//
//	err := errors.New("E020").
//	    WithDetail("snapshot is 70 KB, limit is 64 KB").
//	    WithSuggestion("Mark large signals Transient() or raise snapshot.maxSize")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E020: Snapshot exceeds size limit
//	//
//	//   snapshot is 70 KB, limit is 64 KB
//	//
//	//   Hint: Mark large signals Transient() or raise snapshot.maxSize
//	//
//	//   Learn more: https://vango.dev/docs/resume/errors/E020
package errors
