// Package markdown renders markdown to HTML and runs the post-processor
// pipeline plugins extend.
//
// Core conversion is delegated to goldmark and treated as a black box.
// After conversion the fragment is parsed into a small DOM wrapper;
// registered post-processors rewrite it in registration order, then fenced
// code blocks are dispatched to language-keyed processors. A processor
// that fails never aborts the pipeline for the rest.
package markdown
