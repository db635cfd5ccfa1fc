// Package factory provides declarative test-fixture generation.
//
// A Factory describes, through named declarations, how to construct
// representative instances of a domain object (a struct, a map, or an
// ORM-backed record). The engine resolves those declarations into concrete
// attribute values, honors dependencies between attributes, and instantiates
// objects through a pluggable build/create/stub strategy.
//
// # Quick Start
//
// Declare a factory for a model once, then build instances from it:
//
//	type User struct {
//		ID    int64
//		Name  string
//		Email string
//		Admin bool
//	}
//
//	userFactory := factory.MustNew(User{},
//		factory.WithDeclarations(
//			factory.Attr("name", "John Doe"),
//			factory.Attr("email", factory.Sequence(func(n int64) any {
//				return fmt.Sprintf("user%d@example.com", n)
//			})),
//			factory.Attr("admin", false),
//		),
//	)
//
//	u, err := userFactory.Build() // *User with email "user0@example.com"
//
// # Declarations
//
// Attribute values may be plain constants or lazy declarations:
//
//	factory.Sequence(fn)        // derived from the per-factory sequence counter
//	factory.LazyFunction(fn)    // computed at build time, no dependencies
//	factory.LazyAttribute(fn)   // computed from sibling attributes
//	factory.SelfAttribute(path) // copy of a sibling or ancestor attribute
//	factory.Iterate(v1, v2)     // cycling choice from a static corpus
//	factory.SubFactory(ref)     // nested object built by another factory
//	factory.Maybe(dec, yes, no) // conditional on a boolean sibling
//	factory.Transform(d, fn)    // value transform wrapping a declaration
//
// Post-construction hooks run after the object exists:
//
//	factory.PostGeneration(fn)            // arbitrary side effect
//	factory.RelatedFactory(ref, "owner")  // build a dependent object
//	factory.PostCall("Activate")          // call a method on the instance
//
// # Overrides
//
// Call-time overrides replace declared values, and double-underscore paths
// reach into nested factories:
//
//	userFactory.Build(
//		factory.Attr("name", "alice"),
//		factory.Attr("profile__bio", "hello"),
//	)
//
// # Strategies
//
// Build constructs an object in memory, Create additionally persists it
// through the configured creation hook (see the adapter packages), and Stub
// returns a plain *Stub attribute bag without touching the target type.
package factory
