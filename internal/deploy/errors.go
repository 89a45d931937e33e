package deploy

import (
	"errors"
	"fmt"
)

// Kind classifies deployment failures.
type Kind int

const (
	KindConfiguration Kind = iota
	KindPortAllocation
	KindVolume
	KindCommand
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindPortAllocation:
		return "port allocation"
	case KindVolume:
		return "volume"
	case KindCommand:
		return "command"
	case KindNetwork:
		return "network"
	default:
		return "configuration"
	}
}

// Error is returned by planning, writing and running a deployment.
type Error struct {
	Kind Kind
	App  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error deploying %s: %v", e.Kind, e.App, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a deployment error of kind k.
func IsKind(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}

func newError(kind Kind, app string, err error) *Error {
	return &Error{Kind: kind, App: app, Err: err}
}
