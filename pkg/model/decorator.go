package model

// Decorator adjusts a binding after the canonical schema-derived structure has
// been built, for example to rename nodes or hide inputs a host cannot render.
type Decorator interface {
	Decorate(*Binding) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Binding) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(binding *Binding) error {
	return fn(binding)
}
