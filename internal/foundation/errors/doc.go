// Package errors provides classified error primitives used across screenstore.
//
// A ClassifiedError carries a category, a severity and a retry strategy next to the
// message and cause, so callers can route failures without string matching:
//
//   - lifecycle errors signal misuse of a closed store or queue and are recoverable
//     by the caller (it stops talking to the dead component)
//   - programmer errors signal impossible state/action combinations; reducers panic
//     with them and tests are expected to catch them
//   - config, journal, relay and sync errors come from the collaborators around the
//     core and carry their own retry hints
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryJournal, "append failed").
//		WithContext("store", name).
//		Retryable().
//		Build()
package errors
