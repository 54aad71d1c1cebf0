package tracker

// TrackState is the lifecycle state of a track
type TrackState int

const (
	// Tentative tracks have not yet been matched NInit times
	Tentative TrackState = iota + 1
	// Confirmed tracks are reported in the tracker output
	Confirmed
	// Deleted tracks are removed at the end of the update
	Deleted
)

// String returns the name of the state
func (s TrackState) String() string {
	switch s {
	case Tentative:
		return "Tentative"
	case Confirmed:
		return "Confirmed"
	case Deleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// track is a single target followed across frames
type track struct {
	id              int
	label           int
	kalman          KalmanState
	state           TrackState
	hits            int
	age             int
	timeSinceUpdate int
	nInit           int
	maxAge          int
	features        *gallery
}

// newTrack starts a track from an unmatched object
func newTrack(kf *KalmanFilter, obj Object, id, nInit, maxAge int,
	features *gallery) *track {

	t := &track{
		id:       id,
		label:    obj.Label,
		kalman:   kf.Initiate(obj.Rect.GetXyah()),
		state:    Tentative,
		hits:     1,
		age:      1,
		nInit:    nInit,
		maxAge:   maxAge,
		features: features,
	}

	t.features.Add(obj.Feature)

	if t.hits >= t.nInit {
		t.state = Confirmed
	}

	return t
}

// predict moves the track state forward one frame
func (t *track) predict(kf *KalmanFilter) {
	kf.Predict(&t.kalman)
	t.age++
	t.timeSinceUpdate++
}

// update corrects the track with its matched object
func (t *track) update(kf *KalmanFilter, obj Object) error {

	if err := kf.Update(&t.kalman, obj.Rect.GetXyah()); err != nil {
		return err
	}

	t.features.Add(obj.Feature)
	t.label = obj.Label
	t.hits++
	t.timeSinceUpdate = 0

	if t.state == Tentative && t.hits >= t.nInit {
		t.state = Confirmed
	}

	return nil
}

// markMissed records that no object matched the track this frame
func (t *track) markMissed() {
	if t.state == Tentative || t.timeSinceUpdate > t.maxAge {
		t.state = Deleted
	}
}

func (t *track) isConfirmed() bool {
	return t.state == Confirmed
}

func (t *track) isDeleted() bool {
	return t.state == Deleted
}

// rect returns the current box estimate
func (t *track) rect() Rect {
	return GenerateRectByXyah(t.kalman.Xyah())
}
