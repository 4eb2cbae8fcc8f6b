//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// The RAM/ROM/disk-sector word encoding is specified as little-endian;
// running on a big-endian host would silently byte-swap every word.
var _ = "this emulator requires a little-endian architecture" + 1
