package server

import "llamaconv/api"

var (
	errRequestBodyDecode  = api.Error{Error: "Error reading request body"}
	errUnknownModelType   = api.Error{Code: "unknown_model_type", Error: "Model type must be one of 7B, 13B, 30B, 65B or auto, and auto needs 1, 2, 4 or 8 checkpoint files"}
	errValidation         = api.Error{Code: "validation_error", Error: "Error validating model directory"}
	errConversionNotFound = api.Error{Code: "not_found", Error: "No conversion with the supplied id"}
)

func missingFilesError(msg string) api.Error {
	return api.Error{Code: "missing_files", Error: msg}
}
