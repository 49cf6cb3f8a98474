package scg

import "errors"

var (
	// ErrConfiguration marks invalid run parameters. It is returned before
	// any eigensolve is attempted.
	ErrConfiguration = errors.New("scg: configuration error")

	// ErrBookkeeping marks a commit of a node that is already inactive or
	// already assigned. It always aborts the run.
	ErrBookkeeping = errors.New("scg: bookkeeping violation")
)
