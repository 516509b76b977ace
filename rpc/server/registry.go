package server

import (
	"sort"

	"github.com/ValentinKolb/rKV/rpc/codec"
)

// --------------------------------------------------------------------------
// Command Definition
// --------------------------------------------------------------------------

// Arity is the accepted number of arguments of a command, including the
// command name. Max < 0 means unbounded.
type Arity struct {
	Min int
	Max int
	// Step requires (n - Min) to be a multiple of Step (0 or 1 = no constraint).
	// It is used by commands taking pairs (MSET, HSET).
	Step int
}

// Exact accepts exactly n arguments
func Exact(n int) Arity { return Arity{Min: n, Max: n} }

// Range accepts min to max arguments
func Range(min, max int) Arity { return Arity{Min: min, Max: max} }

// AtLeast accepts n or more arguments
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

// Pairs accepts n or more arguments where everything after the first n-2
// arguments comes in pairs
func Pairs(n int) Arity { return Arity{Min: n, Max: -1, Step: 2} }

// Allows reports whether a request with n arguments satisfies the arity
func (a Arity) Allows(n int) bool {
	if n < a.Min || (a.Max >= 0 && n > a.Max) {
		return false
	}
	return a.Step <= 1 || (n-a.Min)%a.Step == 0
}

// Flags describe the effect of a command
type Flags uint8

const (
	FlagReadOnly Flags = 1 << iota // never modifies the keyspace
	FlagWrite                      // may modify the keyspace
	FlagAdmin                      // delegated to the admin component
)

// HandlerFunc executes one command. The arity is checked before a handler is
// called, handlers only validate the content of the arguments.
type HandlerFunc func(ctx *Context) (codec.Reply, error)

// Command is one entry of the command table
type Command struct {
	Name    string // upper case
	Arity   Arity
	Flags   Flags
	Handler HandlerFunc

	stats *commandStats
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry maps upper case command names to commands. It is built once and
// read concurrently afterwards.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry returns a registry holding every supported command
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]*Command)}
	r.Register(connectionCommands...)
	r.Register(keyCommands...)
	r.Register(stringCommands...)
	r.Register(hashCommands...)
	r.Register(listCommands...)
	r.Register(setCommands...)
	r.Register(zsetCommands...)
	r.Register(bitmapCommands...)
	r.Register(scanCommands...)
	r.Register(adminCommands...)
	return r
}

// Register adds commands to the registry. It panics on duplicate names.
func (r *Registry) Register(cmds ...Command) {
	for i := range cmds {
		cmd := cmds[i]
		if _, ok := r.commands[cmd.Name]; ok {
			panic("server: duplicate command " + cmd.Name)
		}
		cmd.stats = newCommandStats(cmd.Name)
		r.commands[cmd.Name] = &cmd
	}
}

// Lookup returns the command registered under the upper case name
func (r *Registry) Lookup(name []byte) (*Command, bool) {
	cmd, ok := r.commands[string(name)]
	return cmd, ok
}

// Len returns the number of registered commands
func (r *Registry) Len() int {
	return len(r.commands)
}

// Names returns the sorted names of all registered commands
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
