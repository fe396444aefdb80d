package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"llamaconv/api"
	"llamaconv/internal/logging"
	"llamaconv/pkg/conversion"
)

// ValidateHandler godoc
//
// @Summary Validate a model directory
// @Description Checks that the directory holds params.json, tokenizer.model and every checkpoint shard for the model type
// @Tags validation
// @Accept json
// @Produce json
// @Param requestBody body api.ValidateRequest true "Model directory and type to validate"
// @Success 200 {object} api.ValidateResponse
// @Failure 400 {object} api.Error
// @Router /validate [post]
func ValidateHandler(ctx *gin.Context) {
	var requestBody api.ValidateRequest

	logger := logging.BuildLoggerFromCtx(ctx)
	if err := ctx.ShouldBindJSON(&requestBody); err != nil {
		logger.WithError(err).Error("Error decoding request body")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errRequestBodyDecode)
		return
	}

	data, err := conversion.ResolveData(requestBody.Directory, requestBody.ModelType)
	if err != nil {
		logger.WithError(err).Info("Could not determine model type")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errUnknownModelType)
		return
	}

	_, files, err := conversion.Validate(data)
	var missingErr *conversion.MissingFilesError
	if err != nil && !errors.As(err, &missingErr) {
		logger.WithError(err).Error("Error validating model directory")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, errValidation)
		return
	}

	response := api.ValidateResponse{
		Directory: data.Directory,
		ModelType: data.ModelType.String(),
		Valid:     missingErr == nil,
		Files:     files,
		Missing:   []string{},
	}
	if missingErr != nil {
		response.Missing = missingErr.Filenames
	}
	ctx.JSON(http.StatusOK, response)
}
