package tester

import "errors"

var (
	ErrNotFound      = errors.New("tester: entry not found")
	ErrDuplicateName = errors.New("tester: duplicate entry name")
)
