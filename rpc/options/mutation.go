package options

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// ParseMutation recognizes the NX and XX tokens
func ParseMutation(arg []byte) (store.Mutation, bool) {
	switch {
	case is(arg, tokNX):
		return store.MutationNX, true
	case is(arg, tokXX):
		return store.MutationXX, true
	default:
		return store.MutationNone, false
	}
}

// MutationFlags accumulates existence and comparison flags of one command.
// GT and LT are recognized so that callers can reject them explicitly.
type MutationFlags struct {
	NX, XX bool
	GT, LT bool
}

// Add records arg if it is one of NX, XX, GT or LT and reports whether it was recognized
func (f *MutationFlags) Add(arg []byte) bool {
	switch {
	case is(arg, tokNX):
		f.NX = true
	case is(arg, tokXX):
		f.XX = true
	case is(arg, tokGT):
		f.GT = true
	case is(arg, tokLT):
		f.LT = true
	default:
		return false
	}
	return true
}

// Mutation returns the accumulated existence precondition. NX and XX are
// mutually exclusive.
func (f MutationFlags) Mutation() (store.Mutation, error) {
	switch {
	case f.NX && f.XX:
		return store.MutationNone, common.IllegalArgs("NX XX").WithDetail("(options are mutually exclusive)")
	case f.NX:
		return store.MutationNX, nil
	case f.XX:
		return store.MutationXX, nil
	default:
		return store.MutationNone, nil
	}
}
