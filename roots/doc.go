// Package roots implements the root set a collector marks from: named
// Stack, Global, and Register roots held in a Table. None of this package
// knows about marking itself — a Visitor (implemented by gc.Collector)
// is dispatched to through each Root's Accept method.
package roots
