package dataflow

import (
	"fmt"

	"github.com/hupe1980/ssaflow/versionmap"
)

// Op is an instruction kind.
type Op uint8

const (
	// OpDefine assigns a fresh version to Key.
	OpDefine Op = iota
	// OpUse reads Key.
	OpUse
	// OpClearStack drops every stack slot, as on entry to a handler.
	OpClearStack
	// OpInvalidateFields drops every synthetic field slot, as after a call.
	OpInvalidateFields
)

var opNames = [...]string{
	OpDefine:           "define",
	OpUse:              "use",
	OpClearStack:       "clear_stack",
	OpInvalidateFields: "invalidate_fields",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	if int(o) >= len(opNames) {
		return nil, fmt.Errorf("dataflow: unknown op %d", uint8(o))
	}
	return []byte(opNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(b []byte) error {
	for i, name := range opNames {
		if name == string(b) {
			*o = Op(i)
			return nil
		}
	}
	return fmt.Errorf("dataflow: unknown op %q", b)
}

// Instr is one instruction. Key is ignored by the domain-wide ops.
type Instr struct {
	Op  Op             `json:"op"`
	Key versionmap.Key `json:"var"`
}

// Define returns an OpDefine instruction.
func Define(k versionmap.Key) Instr { return Instr{Op: OpDefine, Key: k} }

// Use returns an OpUse instruction.
func Use(k versionmap.Key) Instr { return Instr{Op: OpUse, Key: k} }

// ClearStack returns an OpClearStack instruction.
func ClearStack() Instr { return Instr{Op: OpClearStack} }

// InvalidateFields returns an OpInvalidateFields instruction.
func InvalidateFields() Instr { return Instr{Op: OpInvalidateFields} }

// Block is a basic block. Blocks are identified by their index in
// Method.Blocks.
type Block struct {
	Instrs []Instr `json:"instrs"`
	Succs  []int   `json:"succs"`
}

// Method is a control-flow graph.
type Method struct {
	Name   string  `json:"name"`
	Entry  int     `json:"entry"`
	Blocks []Block `json:"blocks"`
}

// Validate checks block references.
func (m *Method) Validate() error {
	if len(m.Blocks) == 0 {
		return &ErrInvalidMethod{Method: m.Name, Block: -1, Reason: "no blocks"}
	}
	if m.Entry < 0 || m.Entry >= len(m.Blocks) {
		return &ErrInvalidMethod{Method: m.Name, Block: -1, Reason: fmt.Sprintf("entry %d out of range", m.Entry)}
	}
	for b, blk := range m.Blocks {
		for _, s := range blk.Succs {
			if s < 0 || s >= len(m.Blocks) {
				return &ErrInvalidMethod{Method: m.Name, Block: b, Reason: fmt.Sprintf("successor %d out of range", s)}
			}
		}
		for _, in := range blk.Instrs {
			if int(in.Op) >= len(opNames) {
				return &ErrInvalidMethod{Method: m.Name, Block: b, Reason: fmt.Sprintf("unknown op %d", in.Op)}
			}
		}
	}
	return nil
}

// predecessors returns the predecessor lists of every block.
func (m *Method) predecessors() [][]int {
	preds := make([][]int, len(m.Blocks))
	for b, blk := range m.Blocks {
		for _, s := range blk.Succs {
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

// reversePostOrder returns the blocks reachable from roots along next, in
// reverse post-order.
func reversePostOrder(n int, roots []int, next func(int) []int) []int {
	visited := make([]bool, n)
	post := make([]int, 0, n)

	type frame struct {
		block int
		edge  int
	}
	for _, r := range roots {
		if visited[r] {
			continue
		}
		visited[r] = true
		stack := []frame{{block: r}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := next(top.block)
			if top.edge < len(edges) {
				s := edges[top.edge]
				top.edge++
				if !visited[s] {
					visited[s] = true
					stack = append(stack, frame{block: s})
				}
				continue
			}
			post = append(post, top.block)
			stack = stack[:len(stack)-1]
		}
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
