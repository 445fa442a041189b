package node

import "github.com/pkg/errors"

// ErrPlaceholderInPlan is returned by Interner.Intern when asked to intern a
// TagPlaceholder node outside of rule pattern construction.
var ErrPlaceholderInPlan = errors.New("node: placeholder tag cannot be interned into a concrete plan")

// ErrArityMismatch is returned when a tag's registered fixed arity does not
// match the supplied children count.
var ErrArityMismatch = errors.New("node: child count does not match tag's registered arity")

// ErrUnregisteredTag is returned when interning a Tag that was never passed
// to RegisterTag.
var ErrUnregisteredTag = errors.New("node: tag has no registered Info")
