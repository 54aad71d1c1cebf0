package pipeline

import (
	"context"
)

// Execute opens, runs and closes a Controller.  Resources are released
// whatever the outcome.  A run stopped from the preview window or by ctx
// returns the summary along with ErrUserInterrupt or the context error.
func Execute(ctx context.Context, p Params, deps Deps) (sum Summary, err error) {

	c := NewController(p, deps)

	defer func() {
		s, cerr := c.Close()
		sum = s

		if err == nil {
			err = cerr
		} else if cerr != nil {
			c.log.WithError(cerr).Warn("Error releasing run resources")
		}
	}()

	if err := c.Open(); err != nil {
		return Summary{}, err
	}

	if err := c.Run(ctx); err != nil {
		return Summary{}, err
	}

	return Summary{}, nil
}
