package retry

import (
	"errors"

	errs "github.com/c360/retrywrap/errors"
)

// Predicate decides whether a failure may be retried.
type Predicate func(err error) bool

// Always retries every failure
func Always(error) bool { return true }

// Never retries nothing; the first failure is final
func Never(error) bool { return false }

// OnErrors matches failures against sentinel categories with errors.Is.
// With no targets every failure matches.
func OnErrors(targets ...error) Predicate {
	if len(targets) == 0 {
		return Always
	}
	targets = append([]error(nil), targets...)
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// OnType matches failures whose chain contains an error of type E
func OnType[E error]() Predicate {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// OnClasses matches failures whose classification is one of classes
func OnClasses(classes ...errs.ErrorClass) Predicate {
	return func(err error) bool {
		class := errs.Classify(err)
		for _, c := range classes {
			if c == class {
				return true
			}
		}
		return false
	}
}

// Not inverts p
func Not(p Predicate) Predicate {
	return func(err error) bool { return !p(err) }
}

// Any matches when at least one predicate matches
func Any(ps ...Predicate) Predicate {
	return func(err error) bool {
		for _, p := range ps {
			if p(err) {
				return true
			}
		}
		return false
	}
}

// All matches when every predicate matches
func All(ps ...Predicate) Predicate {
	return func(err error) bool {
		for _, p := range ps {
			if !p(err) {
				return false
			}
		}
		return true
	}
}
