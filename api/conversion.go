package api

type ConversionRequest struct {
	Directory string `json:"directory" binding:"required"`
	ModelType string `json:"model_type"`
}

type ConversionStep struct {
	Step          string   `json:"step"`
	State         string   `json:"state"`
	Duration      int64    `json:"duration"`
	DurationHuman string   `json:"duration_human"`
	ExitCode      int32    `json:"exit_code"`
	Output        []string `json:"output,omitempty"`
}

type ConversionResponse struct {
	ID         string           `json:"id"`
	Directory  string           `json:"directory"`
	ModelType  string           `json:"model_type"`
	State      string           `json:"state"`
	Steps      []ConversionStep `json:"steps"`
	OutputFile string           `json:"output_file,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  string           `json:"created_at"`
}
