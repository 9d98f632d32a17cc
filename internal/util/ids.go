package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRunID generates a URL-safe lowercase run identifier.
func NewRunID() (string, error) {
	id, err := gonanoid.Generate(runIDAlphabet, 21)
	if err != nil {
		return "", err
	}
	return "run_" + id, nil
}
