package tracker

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

const (
	// stdWeightPosition and stdWeightVelocity scale the Kalman process and
	// measurement noise relative to the box height
	stdWeightPosition = 1.0 / 20
	stdWeightVelocity = 1.0 / 160
)

// DeepSort tracks objects across frames by combining Kalman motion
// prediction with appearance features.  One instance serves one video.
type DeepSort struct {
	cfg       Config
	kf        *KalmanFilter
	extractor Extractor
	useAccel  bool
	tracks    []*track
	nextID    int
}

// New creates a DeepSort tracker, loading the re-identification model named
// in the config when it is an ONNX file and using the patch extractor
// otherwise
func New(cfg Config, useAccel bool) (*DeepSort, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var ext Extractor = NewPatchExtractor()

	if strings.EqualFold(filepath.Ext(cfg.ReIDCheckpoint), ".onnx") {

		net, err := NewNetExtractor(cfg.ReIDCheckpoint, useAccel)

		if err != nil {
			return nil, err
		}

		ext = net
	}

	return NewDeepSort(cfg, ext, useAccel), nil
}

// NewDeepSort creates a DeepSort tracker using the given extractor.  When
// useAccel is set appearance features are kept in half precision.
func NewDeepSort(cfg Config, ext Extractor, useAccel bool) *DeepSort {
	return &DeepSort{
		cfg:       cfg,
		kf:        NewKalmanFilter(stdWeightPosition, stdWeightVelocity),
		extractor: ext,
		useAccel:  useAccel,
		nextID:    1,
	}
}

// Update runs one tracking step with the detections of the frame and
// returns the confirmed tracks.  The frame is only read.
func (ds *DeepSort) Update(dets []vidtrack.Detection, frame gocv.Mat) (vidtrack.Tracks, error) {

	objs := DetectionsToObjects(dets, ds.cfg.MinConfidence)

	if len(objs) > 0 && ds.extractor != nil {

		rects := make([]Rect, len(objs))

		for i := range objs {
			rects[i] = objs[i].Rect
		}

		feats, err := ds.extractor.Extract(frame, rects)

		if err != nil {
			return nil, fmt.Errorf("error extracting features: %w", err)
		}

		for i := range objs {
			objs[i].Feature = feats[i]
		}
	}

	objs = suppressOverlaps(objs, ds.cfg.NMSMaxOverlap)

	for _, t := range ds.tracks {
		t.predict(ds.kf)
	}

	matches, unmatchedTracks, unmatchedObjs, err := ds.match(objs)

	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		if err := ds.tracks[m.track].update(ds.kf, objs[m.detection]); err != nil {
			return nil, fmt.Errorf("error updating track %d: %w", ds.tracks[m.track].id, err)
		}
	}

	for _, i := range unmatchedTracks {
		ds.tracks[i].markMissed()
	}

	for _, i := range unmatchedObjs {
		ds.tracks = append(ds.tracks, newTrack(ds.kf, objs[i], ds.nextID,
			ds.cfg.NInit, ds.cfg.MaxAge, newGallery(ds.cfg.NNBudget, ds.useAccel)))
		ds.nextID++
	}

	alive := ds.tracks[:0]

	for _, t := range ds.tracks {
		if !t.isDeleted() {
			alive = append(alive, t)
		}
	}

	ds.tracks = alive

	width, height := frame.Cols(), frame.Rows()

	if width <= 0 || height <= 0 {
		width, height = math.MaxInt32, math.MaxInt32
	}

	out := make(vidtrack.Tracks, 0, len(ds.tracks))

	for _, t := range ds.tracks {

		if !t.isConfirmed() || t.timeSinceUpdate > 1 {
			continue
		}

		r := t.rect()
		out = append(out, vidtrack.Track{
			Box: r.ToXYXY(width, height),
			ID:  t.id,
		})
	}

	return out, nil
}

// match associates predicted tracks with objects, first by appearance over
// confirmed tracks ordered by age, then by IoU for the remainder
func (ds *DeepSort) match(objs []Object) ([]match, []int, []int, error) {

	var confirmed, unconfirmed []int

	for i, t := range ds.tracks {
		if t.isConfirmed() {
			confirmed = append(confirmed, i)
		} else {
			unconfirmed = append(unconfirmed, i)
		}
	}

	matchesA, unmatchedA, unmatchedObjs, err := ds.matchingCascade(confirmed, objs)

	if err != nil {
		return nil, nil, nil, err
	}

	// tracks missed for exactly one frame get a second chance on IoU
	iouTracks := unconfirmed
	var stale []int

	for _, i := range unmatchedA {
		if ds.tracks[i].timeSinceUpdate == 1 {
			iouTracks = append(iouTracks, i)
		} else {
			stale = append(stale, i)
		}
	}

	cost := ds.iouCost(iouTracks, objs, unmatchedObjs)

	m, ut, uo, err := linearAssignment(cost, len(iouTracks), len(unmatchedObjs),
		ds.cfg.MaxIoUDistance)

	if err != nil {
		return nil, nil, nil, err
	}

	matches := matchesA

	for _, mm := range m {
		matches = append(matches, match{
			track:     iouTracks[mm.track],
			detection: unmatchedObjs[mm.detection],
		})
	}

	unmatchedTracks := stale

	for _, i := range ut {
		unmatchedTracks = append(unmatchedTracks, iouTracks[i])
	}

	var remaining []int

	for _, j := range uo {
		remaining = append(remaining, unmatchedObjs[j])
	}

	return matches, unmatchedTracks, remaining, nil
}

// matchingCascade matches confirmed tracks level by level, tracks updated
// most recently first
func (ds *DeepSort) matchingCascade(trackIdx []int, objs []Object) ([]match, []int, []int, error) {

	unmatchedObjs := make([]int, len(objs))

	for i := range objs {
		unmatchedObjs[i] = i
	}

	var matches []match
	matched := make(map[int]bool)

	for level := 0; level < ds.cfg.MaxAge && len(unmatchedObjs) > 0; level++ {

		var levelTracks []int

		for _, i := range trackIdx {
			if ds.tracks[i].timeSinceUpdate == level+1 {
				levelTracks = append(levelTracks, i)
			}
		}

		if len(levelTracks) == 0 {
			continue
		}

		cost, err := ds.appearanceCost(levelTracks, objs, unmatchedObjs)

		if err != nil {
			return nil, nil, nil, err
		}

		m, _, uo, err := linearAssignment(cost, len(levelTracks), len(unmatchedObjs),
			ds.cfg.MaxDist)

		if err != nil {
			return nil, nil, nil, err
		}

		for _, mm := range m {
			t := levelTracks[mm.track]
			matches = append(matches, match{track: t, detection: unmatchedObjs[mm.detection]})
			matched[t] = true
		}

		next := make([]int, 0, len(uo))

		for _, j := range uo {
			next = append(next, unmatchedObjs[j])
		}

		unmatchedObjs = next
	}

	var unmatchedTracks []int

	for _, i := range trackIdx {
		if !matched[i] {
			unmatchedTracks = append(unmatchedTracks, i)
		}
	}

	return matches, unmatchedTracks, unmatchedObjs, nil
}

// appearanceCost returns the smallest cosine distance of each object to each
// track's feature gallery, with pairs failing the motion gate set to infCost
func (ds *DeepSort) appearanceCost(trackIdx []int, objs []Object, objIdx []int) ([][]float64, error) {

	measurements := make([]Xyah, len(objIdx))

	for j, oi := range objIdx {
		measurements[j] = objs[oi].Rect.GetXyah()
	}

	cost := make([][]float64, len(trackIdx))

	for r, ti := range trackIdx {

		t := ds.tracks[ti]
		cost[r] = make([]float64, len(objIdx))

		gate, err := ds.kf.GatingDistance(t.kalman, measurements)

		if err != nil {
			return nil, fmt.Errorf("error gating track %d: %w", t.id, err)
		}

		for c, oi := range objIdx {
			if gate[c] > chi2inv95 {
				cost[r][c] = infCost
				continue
			}

			cost[r][c] = t.features.Distance(objs[oi].Feature)
		}
	}

	return cost, nil
}

// iouCost returns 1-IoU between each track's predicted box and each object
func (ds *DeepSort) iouCost(trackIdx []int, objs []Object, objIdx []int) [][]float64 {

	cost := make([][]float64, len(trackIdx))

	for r, ti := range trackIdx {

		tr := ds.tracks[ti].rect()
		cost[r] = make([]float64, len(objIdx))

		for c, oi := range objIdx {
			cost[r][c] = 1 - float64(tr.CalcIoU(objs[oi].Rect))
		}
	}

	return cost
}

// Len returns the number of live tracks, tentative ones included
func (ds *DeepSort) Len() int {
	return len(ds.tracks)
}

// Close releases the feature extractor
func (ds *DeepSort) Close() error {
	if ds.extractor == nil {
		return nil
	}
	return ds.extractor.Close()
}
