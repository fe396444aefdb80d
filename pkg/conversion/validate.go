package conversion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"llamaconv/pkg/model"
)

const (
	ParamsFileName    = "params.json"
	TokenizerFileName = "tokenizer.model"

	checkpointPattern = "consolidated.*.pth"
)

func CheckpointFileName(part int) string {
	return fmt.Sprintf("consolidated.%02d.pth", part)
}

// Data describes a directory holding the original PyTorch weights.
type Data struct {
	ModelType model.ModelType
	Directory string
}

// ValidatedData can only be obtained from Validate, conversions refuse anything else.
type ValidatedData struct {
	data Data
}

func (v ValidatedData) Data() Data {
	return v.data
}

type MissingFilesError struct {
	Filenames []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("missing required files: %s", strings.Join(e.Filenames, ", "))
}

// RequiredFiles lists the params, tokenizer and every checkpoint shard for the model type, in that order.
func RequiredFiles(data Data) []string {
	fileNames := []string{ParamsFileName, TokenizerFileName}
	for part := 0; part < data.ModelType.NumPyTorchModelParts(); part++ {
		fileNames = append(fileNames, CheckpointFileName(part))
	}

	paths := make([]string, 0, len(fileNames))
	for _, fileName := range fileNames {
		paths = append(paths, filepath.Join(data.Directory, fileName))
	}
	return paths
}

// Validate checks every required file. The file states are returned even when validation fails so
// callers can show what was found.
func Validate(data Data) (ValidatedData, []model.RequiredFile, error) {
	if data.ModelType == model.ModelTypeUnknown {
		return ValidatedData{}, nil, model.ErrUnknownModelType
	}

	var missing []string
	var files []model.RequiredFile
	for _, path := range RequiredFiles(data) {
		file := model.RequiredFile{Path: path}
		info, err := os.Stat(path)
		switch {
		case err == nil && !info.IsDir():
			file.Found = true
			file.Size = info.Size()
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return ValidatedData{}, nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !file.Found {
			missing = append(missing, filepath.Base(path))
		}
		files = append(files, file)
	}

	if len(missing) > 0 {
		return ValidatedData{}, files, &MissingFilesError{Filenames: missing}
	}
	return ValidatedData{data: data}, files, nil
}

// InferModelType guesses the model size from the number of checkpoint shards in dir.
func InferModelType(dir string) (model.ModelType, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), checkpointPattern)
	if err != nil {
		return model.ModelTypeUnknown, err
	}
	modelType := model.ModelTypeForParts(len(matches))
	if modelType == model.ModelTypeUnknown {
		return modelType, fmt.Errorf("%d checkpoint files in %s: %w", len(matches), dir, model.ErrUnknownModelType)
	}
	return modelType, nil
}

// AutoModelType asks ResolveData to infer the model type from the checkpoint shards.
const AutoModelType = "auto"

// ResolveData builds Data from user input, modelTypeName is a model size or AutoModelType (the default when empty).
func ResolveData(dir, modelTypeName string) (Data, error) {
	if modelTypeName == "" || modelTypeName == AutoModelType {
		modelType, err := InferModelType(dir)
		return Data{ModelType: modelType, Directory: dir}, err
	}

	modelType, err := model.ParseModelType(modelTypeName)
	return Data{ModelType: modelType, Directory: dir}, err
}
