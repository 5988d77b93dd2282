package disposable

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DisposeAll disposes every handle in order. A panicking teardown does not
// stop the remaining ones from running. Once all of them ran, a single
// failure is re-raised with its original value and several failures are
// raised together as a *multierror.Error.
func DisposeAll(disposables ...Disposable) {
	var (
		first  any
		failed int
		merr   *multierror.Error
	)
	for _, d := range disposables {
		if d == nil {
			continue
		}
		r, panicked := disposeRecovering(d)
		if !panicked {
			continue
		}
		failed++
		if failed == 1 {
			first = r
		}
		merr = multierror.Append(merr, panicValueError(r))
	}

	switch {
	case failed == 1:
		panic(first)
	case failed > 1:
		panic(merr.ErrorOrNil())
	}
}

func disposeRecovering(d Disposable) (r any, panicked bool) {
	defer func() {
		if r = recover(); r != nil {
			panicked = true
		}
	}()
	d.Dispose()
	return nil, false
}

func panicValueError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("disposable: teardown panicked: %v", r)
}
