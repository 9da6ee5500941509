package node

import (
	"reflect"
	"sync"

	"golang.org/x/xerrors"
)

// reflectInjector resolves a component by its type. The components are
// injected when the daemon starts and resolved concurrently by the actions.
//
// - implements node.Injector
type reflectInjector struct {
	sync.RWMutex
	components []reflect.Value
}

// NewInjector returns an injector without any component.
func NewInjector() Injector {
	return &reflectInjector{}
}

// Resolve implements node.Injector. The target is usually a pointer to an
// interface, which the components are tried against in the order they were
// injected.
func (inj *reflectInjector) Resolve(target interface{}) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr {
		return xerrors.Errorf("expect a pointer, got '%T'", target)
	}

	if ptr.IsNil() {
		return xerrors.New("nil pointer")
	}

	want := ptr.Type().Elem()

	inj.RLock()
	defer inj.RUnlock()

	for _, c := range inj.components {
		if c.Type().AssignableTo(want) {
			ptr.Elem().Set(c)
			return nil
		}
	}

	return xerrors.Errorf("couldn't find dependency for '%v'", want)
}

// Inject implements node.Injector. A nil component is ignored.
func (inj *reflectInjector) Inject(component interface{}) {
	if component == nil {
		return
	}

	value := reflect.ValueOf(component)

	inj.Lock()
	defer inj.Unlock()

	for i, c := range inj.components {
		if c.Type() == value.Type() {
			inj.components[i] = value
			return
		}
	}

	inj.components = append(inj.components, value)
}
