package ledger

import "errors"

// ErrUnknownUser is returned by Submit for a user without a record.
var ErrUnknownUser = errors.New("unknown user")
