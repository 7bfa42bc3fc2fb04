package callbacks

import "fmt"

// Category selects one listener collection.
type Category int

const (
	CategoryThreadLifecycle Category = iota
	CategoryClassLoad
	CategorySigQuit
	CategoryRuntimePhase
	CategoryMethod
	CategoryMonitor
	CategoryPark
	CategoryMethodInspection
	CategoryDdm
	CategoryDebuggerControl
	CategoryReflectiveValueVisit

	numCategories
)

var categoryNames = [numCategories]string{
	CategoryThreadLifecycle:      "thread-lifecycle",
	CategoryClassLoad:            "class-load",
	CategorySigQuit:              "sigquit",
	CategoryRuntimePhase:         "runtime-phase",
	CategoryMethod:               "method",
	CategoryMonitor:              "monitor",
	CategoryPark:                 "park",
	CategoryMethodInspection:     "method-inspection",
	CategoryDdm:                  "ddm",
	CategoryDebuggerControl:      "debugger-control",
	CategoryReflectiveValueVisit: "reflective-value-visit",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	all := make([]Category, numCategories)
	for i := range all {
		all[i] = Category(i)
	}
	return all
}

func (c Category) String() string {
	if c.Valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// ParseCategory maps a category name as returned by String back to its value.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}
