package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/pipeline"
)

// ParseParams fills run parameters from the /detect query string.  Missing
// parameters keep their defaults.
func ParseParams(q url.Values) (pipeline.Params, error) {

	p := pipeline.DefaultParams()
	var err error

	str := func(key string, dst *string) {
		if _, ok := q[key]; ok {
			*dst = q.Get(key)
		}
	}

	num := func(key string, dst *int) {
		if err != nil {
			return
		}
		if v, ok := lookup(q, key); ok {
			var n int
			if n, err = strconv.Atoi(v); err != nil {
				err = badParam(key, v)
				return
			}
			*dst = n
		}
	}

	float := func(key string, dst *float32) {
		if err != nil {
			return
		}
		if v, ok := lookup(q, key); ok {
			var f float64
			if f, err = strconv.ParseFloat(v, 32); err != nil {
				err = badParam(key, v)
				return
			}
			*dst = float32(f)
		}
	}

	// flags are set by their presence, "?display" is the same as
	// "?display=true"
	flag := func(key string, dst *bool) {
		if err != nil {
			return
		}
		if _, ok := q[key]; !ok {
			return
		}
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			*dst = true
			return
		}
		var b bool
		if b, err = strconv.ParseBool(v); err != nil {
			err = badParam(key, v)
			return
		}
		*dst = b
	}

	str("input_path", &p.InputPath)
	str("save_path", &p.SavePath)
	str("fourcc", &p.FourCC)
	str("device", &p.Device)
	str("save_txt", &p.SaveTxt)
	str("weights", &p.Weights)
	str("config_deepsort", &p.ConfigDeepSort)
	str("labels", &p.Labels)

	num("camera", &p.Camera)
	num("frame_interval", &p.FrameInterval)
	num("display_width", &p.DisplayWidth)
	num("display_height", &p.DisplayHeight)
	num("img_size", &p.ImgSize)

	float("conf-thres", &p.ConfThres)
	float("iou-thres", &p.IoUThres)

	flag("display", &p.Display)
	flag("agnostic-nms", &p.AgnosticNMS)

	if err != nil {
		return pipeline.Params{}, err
	}

	if _, ok := q["classes"]; ok {
		if p.Classes, err = parseClasses(q.Get("classes")); err != nil {
			return pipeline.Params{}, err
		}
	}

	if err := p.Validate(); err != nil {
		return pipeline.Params{}, err
	}

	return p, nil
}

// lookup returns the trimmed value of a key that is present and not empty
func lookup(q url.Values, key string) (string, bool) {

	v := strings.TrimSpace(q.Get(key))

	return v, v != ""
}

// parseClasses reads a comma separated list of class indexes, an empty list
// allows all classes
func parseClasses(v string) ([]int, error) {

	var classes []int

	for _, f := range strings.Split(v, ",") {

		f = strings.TrimSpace(f)

		if f == "" {
			continue
		}

		n, err := strconv.Atoi(f)

		if err != nil {
			return nil, badParam("classes", v)
		}

		classes = append(classes, n)
	}

	return classes, nil
}

func badParam(key, value string) error {
	return fmt.Errorf("%w: %s=%q", vidtrack.ErrInvalidParams, key, value)
}
