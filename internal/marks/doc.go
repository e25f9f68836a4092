// Package marks holds the marksheet arithmetic: turning a subject→mark map into a
// total and percentage, deriving the filtered and ordered marksheet view, and the
// statistics behind the performance charts.
//
// Everything here is a pure function of its inputs. Nothing performs I/O and no
// state is shared between calls, so all functions are safe for concurrent use.
package marks
