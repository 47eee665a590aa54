package module

import (
	"fmt"
	"strings"
)

// CallStack is an immutable singly-linked list of frame names. Frames
// share their tail by pointer, so extending is O(1) and a backtrace can
// be rendered without copying.
type CallStack struct {
	prev *CallStack
	cur  string
}

// NewCallStack returns the root frame.
func NewCallStack() *CallStack {
	return &CallStack{cur: "root"}
}

// Extend returns a new stack with name pushed on top of prev.
func Extend(name string, prev *CallStack) *CallStack {
	return &CallStack{prev: prev, cur: name}
}

// String renders the stack for a user-facing report, innermost frame
// first.
func (cs *CallStack) String() string {
	var out []string
	for s := cs; s != nil; s = s.prev {
		out = append(out, fmt.Sprintf("\tin %q", s.cur))
	}
	return strings.Join(out, "\n")
}
