package binding

// Target is an externally owned event source that can carry listener
// registrations. Implementations map the contract onto their own listener
// infrastructure (in-memory registry, broker subscriptions, etc.).
//
// Both operations are void: targets absorb their own failures (logging them
// if they wish) rather than surfacing them through the binder, which treats
// per-pair irregularities as expected transient conditions.
type Target interface {
	// AddListener registers h for events of the given type, honoring cfg.
	AddListener(t EventType, h *Handler, cfg ListenerConfig)

	// RemoveListener undoes a prior AddListener for the same (type, handler).
	// Removing a listener that is not registered is a no-op.
	RemoveListener(t EventType, h *Handler)
}

// TargetRef is a back-reference to a Target that may not be populated at
// binding time. An absent resolution skips only that pair's binding; it is
// never an error.
type TargetRef interface {
	Resolve() (Target, bool)
}

// Ref returns a fixed TargetRef for t. A nil t resolves as absent.
func Ref(t Target) TargetRef { return fixedRef{t: t} }

type fixedRef struct{ t Target }

func (r fixedRef) Resolve() (Target, bool) { return r.t, r.t != nil }

// RefFunc adapts a lookup function to the TargetRef contract.
// The function is consulted at registration time, so a ref may become
// populated (or absent) between cycles.
type RefFunc func() (Target, bool)

func (f RefFunc) Resolve() (Target, bool) { return f() }
