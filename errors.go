package vidtrack

import "errors"

// Error taxonomy of a tracking run.  Errors returned by the packages wrap
// one of these so callers can test for them with errors.Is
var (
	// ErrSourceUnavailable is returned when the video file does not exist
	// or the camera device can not be opened
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSetup is returned when an output directory, video writer, window
	// or other sink can not be created
	ErrSetup = errors.New("setup error")
	// ErrInference is returned when the detector or tracker fails on a frame
	ErrInference = errors.New("inference error")
	// ErrSinkWrite is returned when a sink fails to write a frame
	ErrSinkWrite = errors.New("sink write error")
	// ErrUserInterrupt signals the user asked to stop the run from the
	// preview window
	ErrUserInterrupt = errors.New("user interrupt")
	// ErrEndOfStream is returned by a source when there are no more frames
	ErrEndOfStream = errors.New("end of stream")
	// ErrInvalidParams is returned when run parameters fail validation
	ErrInvalidParams = errors.New("invalid parameter")
)
