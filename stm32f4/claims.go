package stm32f4

import (
	"testfw-go/errcode"
)

// Claims maps each owned identifier to the name of the group that owns it.
// Generated assignment code declares it as a map literal, so the compiler
// rejects an identifier listed twice.
type Claims map[ID]string

// Check verifies that the claims partition exactly the named groups: every
// claim names a declared group and every declared group owns something.
func (c Claims) Check(groups ...string) error {
	declared := make(map[string]int, len(groups))
	for _, g := range groups {
		if _, dup := declared[g]; dup {
			return errcode.New(errcode.InvalidParams, "claims", "group "+g+" declared twice")
		}
		declared[g] = 0
	}
	for id, g := range c {
		if id.Kind() == KindNone {
			return errcode.New(errcode.UnknownPin, "claims", id.String())
		}
		n, ok := declared[g]
		if !ok {
			return errcode.New(errcode.InvalidParams, "claims", id.String()+" claimed by undeclared group "+g)
		}
		declared[g] = n + 1
	}
	for _, g := range groups {
		if declared[g] == 0 {
			return errcode.New(errcode.InvalidParams, "claims", "group "+g+" owns nothing")
		}
	}
	return nil
}

// Owner returns the group owning id.
func (c Claims) Owner(id ID) (string, bool) {
	g, ok := c[id]
	return g, ok
}
