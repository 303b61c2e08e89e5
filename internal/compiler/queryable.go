package compiler

// Queryable is a lazily transformed sequence of records.
//
// Each method returns a new Queryable and leaves the receiver unchanged.
// Operations apply in call order, so Take followed by Where filters only the
// taken records.
type Queryable[T any] interface {
	Where(p Predicate[T]) Queryable[T]
	OrderBy(o Ordering[T]) Queryable[T]
	Skip(n int) Queryable[T]
	Take(n int) Queryable[T]
}
