// Package testutil provides small fluent helpers shared by package tests:
// element builders, hook recorders and chunk stream constructors.
package testutil
