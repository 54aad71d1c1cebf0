/*
vidtrack couples a YOLO object detector to a DeepSort style multi-object
tracker across the frames of a video file or camera stream.

A run pulls frames from a source, runs detection and tracking on every
k-th frame (the sampling interval) and reuses the last tracked result on the
frames in between.  Tracked boxes with their persistent identities are then
fanned out to a preview window, an encoded output video, per frame text
records and other sinks.

The packages are layered leaf first:

	source       video file and camera capture
	preprocess   letterbox resize and its inverse
	postprocess  detector candidates, non-maximum suppression, YOLOv5 decoding
	detector     detection adapter and the gocv DNN model
	tracker      DeepSort tracker, its YAML config and trail history
	render       annotation of frames with tracks
	sink         preview, MJPEG stream, video writer, text record, MQTT
	pipeline     frame interval scheduler and the pipeline controller
	server       the HTTP /detect endpoint

See the example/detect directory for a runnable server.
*/
package vidtrack
