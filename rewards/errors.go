package rewards

import "errors"

var (
	// ErrNilFacility indicates the component was built without a distribution facility.
	ErrNilFacility = errors.New("rewards: distribution facility is nil")

	// ErrNilRequest indicates a distribution call without a request.
	ErrNilRequest = errors.New("rewards: distribution request is nil")

	// ErrInvalidConfig indicates a configuration the component cannot run with.
	ErrInvalidConfig = errors.New("rewards: invalid configuration")
)
