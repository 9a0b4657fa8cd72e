// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU/NUMA thread-pinning primitives. No other package of this module
// imports it; scheduler workers pin through the affinity package instead.
// Cross-platform, with CGO-free stub fallbacks so the module still builds
// without a C toolchain.
package concurrency
