// Package model defines the binding a remote model document compiles into: an
// ordered set of typed inputs with widget settings plus an output
// specification. Builders live in internal/model but return the types defined
// here.
//
// Input types come from a closed vocabulary (TEXT, INTEGER, FLOAT, BOOLEAN,
// ENUM, IMAGE, AUDIO, VIDEO). Inference is an ordered rule list: a declared
// enum wins, uri strings are classified by the file extension of their default
// example and then by name, and the remaining primitives map one to one.
// Inputs are sorted by `x-order`, partitioned into required and optional, and
// every binding ends with the synthetic optional `force_rerun` toggle.
package model
