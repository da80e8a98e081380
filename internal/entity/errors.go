package entity

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailAlreadyExists = errors.New("a person with this email already exists for the tenant")
)
