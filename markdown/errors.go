package markdown

import "fmt"

// InitializationError reports a converter that could not be built, for
// example because a rule registration failed.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("markdown: could not initialize converter: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ConversionError reports a failure inside the conversion engine.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("markdown: conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
