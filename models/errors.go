package models

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidRecipe     = errors.New("recipe ratios must sum to 100")
	ErrAlreadyVoided     = errors.New("already voided")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInvalidLogin      = errors.New("invalid username or password")
)
