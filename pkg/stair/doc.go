// Package stair defines the design inputs of a helical staircase and the
// pure derivation functions that turn them into tread counts, angles and
// clearances. All lengths are inches and all angles are degrees.
package stair
