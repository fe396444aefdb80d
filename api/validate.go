package api

import "llamaconv/pkg/model"

type ValidateRequest struct {
	Directory string `json:"directory" binding:"required"`
	// ModelType is 7B, 13B, 30B, 65B or auto, empty means auto.
	ModelType string `json:"model_type"`
}

type ValidateResponse struct {
	Directory string               `json:"directory"`
	ModelType string               `json:"model_type"`
	Valid     bool                 `json:"valid"`
	Files     []model.RequiredFile `json:"files"`
	Missing   []string             `json:"missing"`
}
