//go:build !windows

package debug

import "errors"

func workingSet() (cur, peak uint64, err error) { return 0, 0, errors.ErrUnsupported }
