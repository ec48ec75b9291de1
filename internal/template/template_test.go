package template

import "testing"

func TestTableOfDistinguishesDistinctOccurrences(t *testing.T) {
	a := Map(map[string]Node{"name": Symbol("name")})
	b := Map(map[string]Node{"name": Symbol("name")})

	if TableOf(a) == TableOf(b) {
		t.Fatal("two distinct sub-template occurrences must not share a table identity")
	}
	if TableOf(a) != TableOf(a) {
		t.Fatal("the same sub-template occurrence must always report the same table identity")
	}
}

func TestFuncIdentity(t *testing.T) {
	out, err := Identity().Apply(42)
	if err != nil || out != 42 {
		t.Fatalf("identity func should pass values through unchanged, got %v, %v", out, err)
	}
}

func TestFuncFromMap(t *testing.T) {
	f := FromMap(map[any]any{"C": "celsius", "F": "fahrenheit"})
	out, err := f.Apply("C")
	if err != nil || out != "celsius" {
		t.Fatalf("expected celsius, got %v, %v", out, err)
	}
	if _, err := f.Apply("K"); err == nil {
		t.Fatal("expected an error for a value outside the map's domain")
	}
}

func TestFuncFromCall(t *testing.T) {
	f := FromFunc(func(v any) (any, error) { return v.(int) * 2, nil })
	out, err := f.Apply(21)
	if err != nil || out != 42 {
		t.Fatalf("expected 42, got %v, %v", out, err)
	}
}

func TestWrapDefaultsToIdentity(t *testing.T) {
	n := Wrap(Symbol("x"), nil, nil)
	tr, ok := n.(*Transform)
	if !ok {
		t.Fatal("Wrap must return a *Transform")
	}
	out, err := tr.Forward.Apply("v")
	if err != nil || out != "v" {
		t.Fatal("default forward function must be identity")
	}
}
