package group

import "errors"

// Common errors
var (
	ErrInvalidArgument = errors.New("value must be a number greater than 0")
	ErrNotFound        = errors.New("group not found")
	ErrAlreadyMember   = errors.New("user is already a member of this group")
	ErrAlreadyInGroup  = errors.New("user is already in another study group")
	ErrNotInGroup      = errors.New("user is not in any study group")
	ErrGroupFull       = errors.New("group is already full")
	ErrPromptTimeout   = errors.New("timed out waiting for a response")
)
