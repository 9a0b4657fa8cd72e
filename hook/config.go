// File: hook/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hook

import "time"

// ConnectTimeoutSource supplies the ambient default connect timeout
// (spec.md §6's "tcp.connect.timeout") when a caller passes timeout <=
// 0 to DialTimeout, satisfied by *control.ConfigStore. Kept as a local,
// minimal interface rather than a direct control import dependency,
// matching ioreactor.PollObserver's pattern for the same reason: hook
// consumes the config surface, it does not own it.
type ConnectTimeoutSource interface {
	ConnectTimeout() time.Duration
}
