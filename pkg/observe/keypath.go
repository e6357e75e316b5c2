package observe

import (
	"fmt"
	"reflect"
)

// PropertyKey identifies one property on one owning type. It is the key
// used by access lists and observation registries, so two keys compare
// equal exactly when they denote the same property on the same type.
//
// Keys are comparable and cheap to copy. Declare them once per tracked
// property, typically as package-level variables next to the accessors:
//
//	var userName = observe.KeyFor[User]("name")
type PropertyKey struct {
	owner reflect.Type
	name  string
}

// KeyFor returns the PropertyKey for the named property of owning type T.
func KeyFor[T any](name string) PropertyKey {
	return PropertyKey{
		owner: reflect.TypeOf((*T)(nil)).Elem(),
		name:  name,
	}
}

// Owner returns the owning type this key belongs to.
func (k PropertyKey) Owner() reflect.Type {
	return k.owner
}

// Name returns the property name.
func (k PropertyKey) Name() string {
	return k.name
}

// String returns "Type.property" for diagnostics and metric labels.
func (k PropertyKey) String() string {
	if k.owner == nil {
		return k.name
	}
	return fmt.Sprintf("%s.%s", k.owner.Name(), k.name)
}

// keySet is a set of property keys observed on one registrar.
type keySet map[PropertyKey]struct{}

func (s keySet) add(key PropertyKey) {
	s[key] = struct{}{}
}

func (s keySet) clone() keySet {
	out := make(keySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
