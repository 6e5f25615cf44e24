package roots

// Visitor is implemented by the collector to mark every heap reference
// reachable from a root, double-dispatched through each Root's Accept
// method rather than a type switch — one method per concrete root kind.
type Visitor interface {
	VisitStack(*Stack)
	VisitGlobal(*Global)
	VisitRegister(*Register)
}

// Root is anything that can be stored in a Table and visited during a
// collection: a thread-local Stack, a Global, or a Register.
type Root interface {
	Accept(v Visitor)
}
