// Package osmem obtains whole pages of memory directly from the operating system, outside the
// control of the Go garbage collector.
//
// Unix targets use anonymous private mmap(2) mappings and windows uses VirtualAlloc. Targets with
// neither (js, wasip1, plan9) fall back to Go heap slices that are kept reachable until Unmap.
//
// Every mapping starts on a page boundary, and page sizes on all supported targets are multiples
// of 4096.
package osmem
