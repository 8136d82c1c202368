package utils

import "errors"

type PermError string

func (e PermError) Error() string {
	return string(e)
}

func (e PermError) IsPermanent() bool {
	return true
}

// IsPermanent reports whether any error in the chain is marked permanent,
// which tells retry loops to stop.
func IsPermanent(err error) bool {
	var pe interface{ IsPermanent() bool }
	return errors.As(err, &pe) && pe.IsPermanent()
}
