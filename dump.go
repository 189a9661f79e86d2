package thirdvm

import (
	"fmt"
	"io"

	"github.com/samber/lo"
)

// dictSnapshot is one walked dictionary entry, captured for dump
// rendering: its name, allocation offset, and cell count.
type dictSnapshot struct {
	name   string
	offset int
	kind   EntryKind
	cells  uint16
}

// walkDict collects the dictionary's linked list, most-recently-defined
// first, into a plain slice -- the shape every lo helper below expects.
func (f *Forth[T]) walkDict() []dictSnapshot {
	var out []dictSnapshot
	for de := f.runDictTail; de != nil; de = de.Link {
		out = append(out, dictSnapshot{
			name:   de.Hdr.Name.String(),
			offset: f.dictAlloc.offsetOf(ptrOf(&de.Hdr)),
			kind:   de.Hdr.Kind,
			cells:  de.Hdr.Len,
		})
	}
	return out
}

// Dump writes a textual snapshot of the VM's dictionary and stacks to w,
// in the spirit of the teacher's vmDumper: one section per concern,
// compact one-line-per-entry formatting.
func (f *Forth[T]) Dump(w io.Writer) error {
	fmt.Fprintf(w, "# VM Dump\n")
	fmt.Fprintf(w, "  dict used: %d/%d bytes\n", f.dictAlloc.Used(), f.dictAlloc.Capacity())

	entries := f.walkDict()
	named := lo.Filter(entries, func(e dictSnapshot, _ int) bool {
		return e.kind == KindDictionary
	})
	builtins := lo.Filter(entries, func(e dictSnapshot, _ int) bool {
		return e.kind == KindRuntimeBuiltin
	})

	fmt.Fprintf(w, "  dictionary words (%d):\n", len(named))
	for _, e := range named {
		fmt.Fprintf(w, "    @%-6d %-16s %d cells\n", e.offset, e.name, e.cells)
	}

	fmt.Fprintf(w, "  runtime builtins/constants/variables (%d):\n", len(builtins))
	names := lo.Map(builtins, func(e dictSnapshot, _ int) string { return e.name })
	for _, n := range names {
		fmt.Fprintf(w, "    %s\n", n)
	}

	f.dumpStack(w, "data", &f.dataStack)
	f.dumpStack(w, "return", &f.returnStack)
	fmt.Fprintf(w, "  call depth: %d/%d\n", f.callStack.Len(), f.callStack.Cap())

	return nil
}

func (f *Forth[T]) dumpStack(w io.Writer, label string, s *Stack[Word]) {
	fmt.Fprintf(w, "  %s stack (%d/%d):", label, s.Len(), s.Cap())
	for i := s.Len() - 1; i >= 0; i-- {
		v, err := s.PeekBackN(s.Len() - 1 - i)
		if err != nil {
			break
		}
		fmt.Fprintf(w, " %d", v.Data())
	}
	fmt.Fprintln(w)
}
