package factory_test

import (
	"fmt"

	factory "github.com/FactoryBoy/factory-boy-sub000"
)

func ExampleNew() {
	users := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("name", factory.Sequence(func(n int64) any {
			return fmt.Sprintf("user%d", n)
		})),
		factory.Attr("email", factory.LazyAttribute(func(s *factory.Scope) (any, error) {
			name, err := s.Attr("name")
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%s@example.org", name), nil
		})),
	))

	for i := 0; i < 2; i++ {
		v, _ := users.Build()
		m := v.(map[string]any)
		fmt.Println(m["name"], m["email"])
	}
	// Output:
	// user0 user0@example.org
	// user1 user1@example.org
}

func ExampleSubFactory() {
	companies := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("name", "acme"),
	))
	employees := factory.MustNew(map[string]any{}, factory.WithDeclarations(
		factory.Attr("name", "jane"),
		factory.Attr("company", factory.SubFactory(companies)),
	))

	v, _ := employees.Build(factory.Attr("company__name", "initech"))
	m := v.(map[string]any)
	fmt.Println(m["name"], m["company"].(map[string]any)["name"])
	// Output:
	// jane initech
}
