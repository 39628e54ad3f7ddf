package domain

// EncoderBackend identifies the hardware family an encoder runs on
type EncoderBackend string

const (
	BackendCPU   EncoderBackend = "CPU"
	BackendQSV   EncoderBackend = "QSV"
	BackendNVENC EncoderBackend = "NVENC"
	BackendAMF   EncoderBackend = "AMF"
)

// EncoderChoice is a video encoder and the ffmpeg arguments that select it
type EncoderChoice struct {
	Backend   EncoderBackend `json:"backend"`
	Encoder   string         `json:"encoder"` // ffmpeg encoder name
	Label     string         `json:"label"`
	CodecArgs []string       `json:"codec_args"`
}

// CPUEncoder is the software fallback; it is assumed to always work
var CPUEncoder = EncoderChoice{
	Backend:   BackendCPU,
	Encoder:   "libx264",
	Label:     "CPU",
	CodecArgs: []string{"-c:v", "libx264", "-preset", "veryfast", "-crf", "23"},
}

// EncoderCandidates returns the encoders in preference order. CPU is last.
func EncoderCandidates() []EncoderChoice {
	return []EncoderChoice{
		{
			Backend:   BackendQSV,
			Encoder:   "h264_qsv",
			Label:     "Intel Quick Sync (QSV)",
			CodecArgs: []string{"-c:v", "h264_qsv", "-preset", "veryfast", "-global_quality", "23"},
		},
		{
			Backend:   BackendNVENC,
			Encoder:   "h264_nvenc",
			Label:     "NVIDIA NVENC (H.264)",
			CodecArgs: []string{"-c:v", "h264_nvenc", "-preset", "p4", "-cq", "23"},
		},
		{
			Backend:   BackendNVENC,
			Encoder:   "hevc_nvenc",
			Label:     "NVIDIA NVENC (HEVC)",
			CodecArgs: []string{"-c:v", "hevc_nvenc", "-preset", "p4", "-cq", "23"},
		},
		{
			Backend:   BackendAMF,
			Encoder:   "h264_amf",
			Label:     "AMD AMF (H.264)",
			CodecArgs: []string{"-c:v", "h264_amf", "-quality", "speed", "-qp_i", "23", "-qp_p", "23"},
		},
		{
			Backend:   BackendAMF,
			Encoder:   "hevc_amf",
			Label:     "AMD AMF (HEVC)",
			CodecArgs: []string{"-c:v", "hevc_amf", "-quality", "speed", "-qp_i", "23", "-qp_p", "23"},
		},
		CPUEncoder,
	}
}
