// Package terminal implements a line-oriented command interpreter that
// controls a mesh node over a character stream such as a serial console.
//
// The terminal is driven cooperatively: the owner calls Process once per
// tick and every call drains the bytes currently available on the stream
// without blocking. Completed lines that start with the command prefix
// are split into a name and an argument string and dispatched to either
// a built-in handler or a runtime-registered custom command. Built-ins
// always take precedence. Everything else on the line is free text and
// never reaches a handler.
//
// A Terminal is not safe for concurrent use; exactly one goroutine owns it.
package terminal
