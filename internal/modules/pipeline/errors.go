package pipeline

import "errors"

var ErrNotifyFailed = errors.New("notification request failed")
