package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/google/uuid"

	"llamaconv/api"
	"llamaconv/api/llamaconv/Conversion"
	"llamaconv/internal/logging"
	"llamaconv/pkg/conversion"
)

const mimeOctetStream = "application/octet-stream"

// CreateConversionHandler godoc
//
// @Summary Start a model conversion
// @Description Validates the model directory and starts converting it in the background. The request can be JSON or a ConversionRequest flatbuffer, the response format is dictated by the Accept header, but all errors are returned as JSON
// @Tags conversion
// @Accept json,octet-stream
// @Produce json,octet-stream
// @Param requestBody body api.ConversionRequest true "Model directory and type to convert"
// @Success 202 {object} api.ConversionResponse
// @Failure 400 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /conversions [post]
func (s *Server) CreateConversionHandler(ctx *gin.Context) {
	logger := logging.BuildLoggerFromCtx(ctx)
	logger.Debug("Processing conversion request")

	requestBody, err := readConversionRequest(ctx)
	if err != nil {
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

	validated, _, err := conversion.Validate(data)
	var missingErr *conversion.MissingFilesError
	switch {
	case errors.As(err, &missingErr):
		logger.WithError(err).Info("Model directory is incomplete")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, missingFilesError(missingErr.Error()))
		return
	case err != nil:
		logger.WithError(err).Error("Error validating model directory")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, errValidation)
		return
	}

	entry := &conversionEntry{
		ID:        uuid.New().String(),
		Data:      data,
		Pipeline:  conversion.NewPyTorchToGgml(validated, s.conversionOptions()),
		CreatedAt: time.Now(),
	}
	s.metrics.conversionStarted()
	s.store.start(entry, validated, s.conversionDone)
	logger.WithConversion(entry.ID).Info("Conversion started", "directory", data.Directory, "model_type", data.ModelType.String())

	writeConversion(ctx, http.StatusAccepted, entry)
}

// GetConversionHandler godoc
//
// @Summary Get a conversion
// @Description Returns the state of a conversion and each of its steps
// @Tags conversion
// @Produce json,octet-stream
// @Param id path string true "Conversion ID"
// @Success 200 {object} api.ConversionResponse
// @Failure 404 {object} api.Error
// @Router /conversions/{id} [get]
func (s *Server) GetConversionHandler(ctx *gin.Context) {
	entry, found := s.store.get(ctx.Param("id"))
	if !found {
		ctx.AbortWithStatusJSON(http.StatusNotFound, errConversionNotFound)
		return
	}
	writeConversion(ctx, http.StatusOK, entry)
}

// CancelConversionHandler godoc
//
// @Summary Cancel a conversion
// @Description Cancels a running conversion, finished conversions are left untouched
// @Tags conversion
// @Produce json
// @Param id path string true "Conversion ID"
// @Success 202 {object} api.ConversionResponse
// @Failure 404 {object} api.Error
// @Router /conversions/{id} [delete]
func (s *Server) CancelConversionHandler(ctx *gin.Context) {
	entry, found := s.store.cancel(ctx.Param("id"))
	if !found {
		ctx.AbortWithStatusJSON(http.StatusNotFound, errConversionNotFound)
		return
	}
	logging.BuildLoggerFromCtx(ctx).WithConversion(entry.ID).Info("Conversion cancelled")
	writeConversion(ctx, http.StatusAccepted, entry)
}

func (s *Server) conversionDone(entry *conversionEntry, result any, err error) {
	s.metrics.conversionStopped(entry.Pipeline)

	logger := logging.BuildLogger().WithConversion(entry.ID)
	if err != nil {
		logger.WithError(err).Warn("Conversion stopped", "state", entry.Pipeline.State().String())
		return
	}

	if cleanUpErr := entry.Pipeline.CleanUp(); cleanUpErr != nil {
		logger.WithError(cleanUpErr).Warn("Error removing intermediate files")
	}
	if res, ok := result.(conversion.Result); ok {
		logger.Info("Conversion finished", "output_file", res.OutputFile, "stats", entry.Pipeline.Stats())
	}
}

func readConversionRequest(ctx *gin.Context) (api.ConversionRequest, error) {
	if ctx.ContentType() != mimeOctetStream {
		var requestBody api.ConversionRequest
		err := ctx.ShouldBindJSON(&requestBody)
		return requestBody, err
	}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		return api.ConversionRequest{}, err
	}
	return decodeConversionRequest(body)
}

func decodeConversionRequest(body []byte) (requestBody api.ConversionRequest, err error) {
	if len(body) < flatbuffers.SizeUOffsetT {
		return requestBody, errors.New("flatbuffer request is too short")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed flatbuffer request: %v", r)
		}
	}()

	fbRequest := Conversion.GetRootAsConversionRequest(body, 0)
	requestBody = api.ConversionRequest{
		Directory: string(fbRequest.Directory()),
		ModelType: string(fbRequest.ModelType()),
	}
	if requestBody.Directory == "" {
		return requestBody, errors.New("directory is required")
	}
	return requestBody, nil
}

func writeConversion(ctx *gin.Context, status int, entry *conversionEntry) {
	response := toConversionResponse(entry)
	if ctx.NegotiateFormat(gin.MIMEJSON, mimeOctetStream) != mimeOctetStream {
		ctx.JSON(status, response)
		return
	}
	ctx.Data(status, mimeOctetStream, encodeConversionStatus(response, failedExitCode(entry.Pipeline)))
}

func encodeConversionStatus(response api.ConversionResponse, exitCode int32) []byte {
	builder := flatbuffers.NewBuilder(256)

	id := builder.CreateString(response.ID)
	state := builder.CreateString(response.State)
	outputFile := builder.CreateString(response.OutputFile)
	errMsg := builder.CreateString(response.Error)

	Conversion.ConversionStatusStart(builder)
	Conversion.ConversionStatusAddId(builder, id)
	Conversion.ConversionStatusAddState(builder, state)
	Conversion.ConversionStatusAddOutputFile(builder, outputFile)
	Conversion.ConversionStatusAddError(builder, errMsg)
	Conversion.ConversionStatusAddExitCode(builder, exitCode)
	Conversion.FinishConversionStatusBuffer(builder, Conversion.ConversionStatusEnd(builder))
	return builder.FinishedBytes()
}
