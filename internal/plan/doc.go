// Package plan holds the caller-side inputs of a scheduling run: project
// definitions in YAML or the plain outline format, and the name map that
// turns human-readable task names into tracker identifiers.
package plan
