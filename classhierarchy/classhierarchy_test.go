package classhierarchy

import (
	"testing"

	"github.com/latticeflow/latticeflow/ir"
)

func TestHierarchySubclassAndSuper(t *testing.T) {
	t.Parallel()

	object := &ir.JClass{Name: "Object"}
	animal := &ir.JClass{Name: "Animal"}
	dog := &ir.JClass{Name: "Dog"}

	h := New()
	h.SetSuperClass(animal, object)
	h.SetSuperClass(dog, animal)

	if h.GetSuperClass(dog) != animal {
		t.Fatalf("expected Dog's super to be Animal")
	}
	subs := h.GetDirectSubclassesOf(animal)
	if len(subs) != 1 || subs[0] != dog {
		t.Fatalf("unexpected direct subclasses of Animal: %v", subs)
	}
}

func TestHierarchyInterfacesAndImplementors(t *testing.T) {
	t.Parallel()

	comparable := &ir.JClass{Name: "Comparable", IsInterface: true}
	orderable := &ir.JClass{Name: "Orderable", IsInterface: true}
	box := &ir.JClass{Name: "Box"}

	h := New()
	h.AddSuperInterface(orderable, comparable)
	h.AddImplements(box, orderable)

	if subs := h.GetDirectSubinterfacesOf(comparable); len(subs) != 1 || subs[0] != orderable {
		t.Fatalf("unexpected direct subinterfaces: %v", subs)
	}
	if impls := h.GetDirectImplementorsOf(orderable); len(impls) != 1 || impls[0] != box {
		t.Fatalf("unexpected implementors: %v", impls)
	}
}

func TestHierarchyDeclaredMethod(t *testing.T) {
	t.Parallel()

	box := &ir.JClass{Name: "Box"}
	m := &ir.JMethod{Name: "get", Declaring: box, Sub: "get()"}

	h := New()
	h.AddMethod(m)

	if got := h.GetDeclaredMethod(box, "get()"); got != m {
		t.Fatalf("expected to find declared method, got %v", got)
	}
	if got := h.GetDeclaredMethod(box, "missing()"); got != nil {
		t.Fatalf("expected nil for undeclared subsignature, got %v", got)
	}
}
