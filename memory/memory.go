package memory

import (
	"github.com/mmedoo/use-eventer/adapters/inmemory"
	"github.com/mmedoo/use-eventer/contract/binding"
)

// New constructs an in-memory target and returns it as a contract.Target
// along with the concrete emitter for dispatching and a cleanup function
// that closes it.
func New() (binding.Target, *inmemory.Emitter, func()) { //nolint:ireturn
	e := inmemory.New()
	cleanup := func() { e.Close() }

	return e, e, cleanup
}
