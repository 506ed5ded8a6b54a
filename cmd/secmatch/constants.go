package main

const (
	// DefaultListLimit is the default number of rows shown by list
	// commands.
	DefaultListLimit = 50
	// DefaultAdjudicateLimit caps how many pending decisions one
	// adjudication pass touches.
	DefaultAdjudicateLimit = 100
)
