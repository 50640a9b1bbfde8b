package allocator

import "errors"

// ErrUnknownPolicy is returned when a policy name does not match any fit policy.
var ErrUnknownPolicy = errors.New("unknown allocation policy")
