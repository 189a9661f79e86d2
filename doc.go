/*
Package thirdvm implements a small, embeddable Forth-like virtual machine: a
stack-based interpreter and compiler meant to be dropped into a host program
that wants to expose scriptable control of its own state to end users.

The VM is built from a handful of small, independently testable pieces:

  - Word, a tagged-by-use cell held by the data and return stacks and by
    compiled bodies.
  - Stack, a fixed-capacity LIFO reused for all three stack kinds (the
    call stack holds CallContext frames).
  - FaStr, a short-name fingerprint used for O(1)-ish dictionary lookups.
  - DictionaryBump, a bump allocator over a caller-owned byte arena.
  - Forth, the interpreter/compiler itself, and AsyncForth, a variant that
    can await host-provided futures from specific builtin words.

The stacks, the dictionary arena and the output buffer are fixed-size
buffers set up at construction (passed in to NewForth, or allocated by New)
and never grown afterwards. Running a VM is not allocation-free: name
lookup, string-literal scanning and formatted output still allocate from
the Go heap. Multiple VMs are fully independent and may run concurrently
on separate goroutines.

See cmd/thirdvm for a REPL host built on top of the package.
*/
package thirdvm
