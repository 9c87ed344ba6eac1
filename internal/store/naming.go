package store

import "reflect"

// ActionName returns the unqualified type name of an action value, used as
// a stable label in logs, metrics and the journal.
func ActionName(action any) string {
	if action == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(action)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
