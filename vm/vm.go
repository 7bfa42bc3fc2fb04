// Package vm defines the runtime identities that are handed to callback
// listeners. The registry never inspects these values; they exist so that each
// capability interface can carry a narrow, typed argument list.
package vm

import (
	"fmt"

	"github.com/google/uuid"
)

// Thread identifies a managed thread.
type Thread struct {
	ID     string
	Name   string
	Daemon bool
}

// NewThread creates a Thread with a unique UUIDv7 identifier.
func NewThread(name string) *Thread {
	return &Thread{
		ID:   uuid.Must(uuid.NewV7()).String(),
		Name: name,
	}
}

func (t *Thread) String() string {
	return fmt.Sprintf("Thread[%s,%s]", t.Name, t.ID)
}

// ClassLoader identifies the loader a class is being defined through.
// A nil *ClassLoader denotes the boot class loader.
type ClassLoader struct {
	Name string
}

// DexFile is a container of class definitions.
type DexFile struct {
	Location string
	Checksum uint32
}

// ClassDef is a single class definition record inside a DexFile.
type ClassDef struct {
	Index      uint32
	Descriptor string
}

// Class is a loaded (or temporary, in-construction) class.
type Class struct {
	Descriptor string
	Loader     *ClassLoader
	Dex        *DexFile
	Def        *ClassDef
}

// Object is a heap object visible to monitor callbacks.
type Object struct {
	Class *Class
}

// Monitor is the inflated lock of an Object.
type Monitor struct {
	Object *Object
	Owner  *Thread
}

// Method identifies a method. Native methods carry their bound implementation.
type Method struct {
	Class  *Class
	Name   string
	Native bool
}

// NativeCode is the entry point of a native method implementation. The zero
// value means "no implementation".
type NativeCode uintptr

// ReflectiveValueVisitor updates reflective targets (fields and methods)
// recorded by listeners, for example after class redefinition.
type ReflectiveValueVisitor interface {
	VisitMethod(m *Method) *Method
}
