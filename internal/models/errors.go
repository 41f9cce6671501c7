package models

import "errors"

var (
	// ErrValidation marks a malformed or missing request field.
	ErrValidation = errors.New("validation failed")
	// ErrAreaNotFound means the area has neither a history series nor metadata.
	ErrAreaNotFound = errors.New("area not found")
	// ErrNotFound means a backing table is absent.
	ErrNotFound = errors.New("table not found")
	// ErrSchema means a backing table lacks a required column.
	ErrSchema = errors.New("invalid table schema")
	// ErrParse means a cell could not be parsed.
	ErrParse = errors.New("parse error")
	// ErrInsufficientData means a series has fewer than two distinct points.
	ErrInsufficientData = errors.New("insufficient data")
)
