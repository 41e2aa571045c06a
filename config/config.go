// Package config holds target properties and feature toggles shared
// by the lexer, resolver, and comptime memory manager.
//
// Grounded in the teacher's config.go (a typed string-keyed map of
// bool/int/string settings for the grammar loader and compiler). The
// core adds a strongly-typed TargetProperties struct on top of the
// same map-of-settings idiom, since spec.md §6 calls out
// set_target_properties({pointer_size, endianness}) as a first-class
// driver-facing entry point rather than a generic setting.
package config

import "fmt"

// Endianness selects the byte order used by the comptime memory
// manager's ConstantValueFromObject/ObjectFromConstantValue coders.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// TargetProperties is the minimal back-end contract the core needs in
// order to type integer literals and lay out comptime memory
// (spec.md §6).
type TargetProperties struct {
	PointerSize int // in bytes
	Endianness  Endianness
}

// DefaultTargetProperties matches a typical 64-bit little-endian host.
func DefaultTargetProperties() TargetProperties {
	return TargetProperties{PointerSize: 8, Endianness: LittleEndian}
}

type valType int

const (
	valUndefined valType = iota
	valBool
	valInt
	valString
)

type val struct {
	typ      valType
	asBool   bool
	asInt    int
	asString string
}

// Config is a typed string-keyed settings map, in the same shape as
// the teacher's Config, extended with TargetProperties as a
// first-class field since it is read on every integer literal and
// every memory allocation rather than occasionally like a grammar
// toggle.
type Config struct {
	Target TargetProperties
	values map[string]*val
}

// NewConfig builds a configuration primed with the defaults the
// resolver and consteval engine expect.
func NewConfig() *Config {
	c := &Config{Target: DefaultTargetProperties(), values: map[string]*val{}}
	c.SetBool("resolve.universal_function_call", true)
	c.SetBool("consteval.fold_short_circuit", true)
	c.SetInt("consteval.step_budget", 1_000_000)
	c.SetInt("consteval.step_budget_without_error", 1_000_000)
	return c
}

func (c *Config) SetBool(path string, v bool) { c.values[path] = &val{typ: valBool, asBool: v} }
func (c *Config) SetInt(path string, v int)   { c.values[path] = &val{typ: valInt, asInt: v} }
func (c *Config) SetString(path string, v string) {
	c.values[path] = &val{typ: valString, asString: v}
}

func (c *Config) GetBool(path string) bool {
	v, ok := c.values[path]
	if !ok || v.typ != valBool {
		panic(fmt.Sprintf("bool setting %q does not exist", path))
	}
	return v.asBool
}

func (c *Config) GetInt(path string) int {
	v, ok := c.values[path]
	if !ok || v.typ != valInt {
		panic(fmt.Sprintf("int setting %q does not exist", path))
	}
	return v.asInt
}

func (c *Config) GetString(path string) string {
	v, ok := c.values[path]
	if !ok || v.typ != valString {
		panic(fmt.Sprintf("string setting %q does not exist", path))
	}
	return v.asString
}
