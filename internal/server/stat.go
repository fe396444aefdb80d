package server

import (
	"time"

	"llamaconv/api"
	"llamaconv/pkg/conversion"
)

const maxOutputLinesInResponse = 50

func toConversionResponse(entry *conversionEntry) api.ConversionResponse {
	pipeline := entry.Pipeline
	response := api.ConversionResponse{
		ID:        entry.ID,
		Directory: entry.Data.Directory,
		ModelType: entry.Data.ModelType.String(),
		State:     pipeline.State().String(),
		CreatedAt: entry.CreatedAt.Format(RFC3339Millis),
	}

	for _, step := range pipeline.Steps() {
		response.Steps = append(response.Steps, toHumanizedStep(step))
	}
	if result, ok := pipeline.Result().(conversion.Result); ok {
		response.OutputFile = result.OutputFile
	}
	if err := pipeline.Err(); err != nil {
		response.Error = err.Error()
	}
	return response
}

func toHumanizedStep(step conversion.StepSnapshot) api.ConversionStep {
	humanized := api.ConversionStep{
		Step:          string(step.Type),
		State:         step.State.String(),
		Duration:      int64(step.Duration),
		DurationHuman: step.Duration.Round(time.Millisecond).String(),
		ExitCode:      step.Status.ExitCode,
	}

	lines := step.Output
	if len(lines) > maxOutputLinesInResponse {
		lines = lines[len(lines)-maxOutputLinesInResponse:]
	}
	for _, line := range lines {
		humanized.Output = append(humanized.Output, line.Text)
	}
	return humanized
}

// failedExitCode is the exit code of the step that stopped the conversion, zero when none did.
func failedExitCode(pipeline *conversion.Pipeline) int32 {
	for _, step := range pipeline.Steps() {
		if step.State == conversion.StepFinished && !step.Status.IsSuccess() {
			return step.Status.ExitCode
		}
	}
	return 0
}
