// Package compiler drives one query through the whole pipeline.
//
// A compilation is a small state machine:
//
//	lexing -> parsing -> analyzing -> translating -> done
//	                \-----------\------------\------> failed
//
// Every stage runs on the text or tree of the one before it and
// contributes diagnostics. The first stage that reports an error moves the run
// to failed; FailedAt names it. Warnings from every stage that ran are kept
// either way.
//
// Options are read once per call, so a config reload only affects
// compilations that start after it. Stage transitions are logged at debug
// level with the request id and dialect attached.
package compiler
