package domain

// Detection is one object found by the model in a frame or image.
type Detection struct {
	Class      int     `json:"class"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
}

// InferenceResult is the output of a single inference call: the detections
// plus the annotated artifact written next to the input.
type InferenceResult struct {
	Detections    []Detection `json:"detections"`
	AnnotatedPath string      `json:"annotated_path"`
}

// FrameResult is one annotated frame produced while streaming inference
// over a video.
type FrameResult struct {
	Index      int         `json:"index"`
	FramePath  string      `json:"frame_path"`
	Detections []Detection `json:"detections"`
}
