package pools

// CallerKind distinguishes the origin of a command.
type CallerKind uint8

const (
	// CallerKindAnonymous carries no identity; only permissionless cleanup
	// paths accept it.
	CallerKindAnonymous CallerKind = iota
	// CallerKindUser is a signed account.
	CallerKindUser
	// CallerKindSystem is the operator/authority origin.
	CallerKindSystem
)

// Caller is the explicit identity passed into every command. It replaces any
// ambient notion of "who is calling" so authorization checks stay local.
type Caller struct {
	Kind CallerKind
	Addr [20]byte
}

// SystemCaller returns the operator/authority identity.
func SystemCaller() Caller {
	return Caller{Kind: CallerKindSystem}
}

// UserCaller returns a signed user identity.
func UserCaller(addr [20]byte) Caller {
	return Caller{Kind: CallerKindUser, Addr: addr}
}

// AnonymousCaller returns the unsigned identity.
func AnonymousCaller() Caller {
	return Caller{Kind: CallerKindAnonymous}
}

func (c Caller) isSystem() bool {
	return c.Kind == CallerKindSystem
}

func (c Caller) isUser(addr [20]byte) bool {
	return c.Kind == CallerKindUser && c.Addr == addr
}

// requireOperator admits the system origin only.
func requireOperator(caller Caller) error {
	if !caller.isSystem() {
		return ErrUnauthorized
	}
	return nil
}

// requireOperatorOr admits the system origin or the given address.
func requireOperatorOr(caller Caller, addr [20]byte) error {
	if caller.isSystem() {
		return nil
	}
	if addr != ([20]byte{}) && caller.isUser(addr) {
		return nil
	}
	return ErrUnauthorized
}
