// Package state tracks per-user conversation state: which step of a
// multi-message dialog the user is in, plus scratch values collected along
// the way. It carries no domain knowledge of its own.
package state
