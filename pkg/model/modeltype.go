package model

import (
	"errors"
	"strings"
)

var (
	ErrUnknownModelType = errors.New("unknown model type, expected one of 7B, 13B, 30B, 65B")
)

type ModelType int

const (
	ModelTypeUnknown ModelType = iota
	ModelType7B
	ModelType13B
	ModelType30B
	ModelType65B
)

var modelTypeNames = map[ModelType]string{
	ModelTypeUnknown: "unknown",
	ModelType7B:      "7B",
	ModelType13B:     "13B",
	ModelType30B:     "30B",
	ModelType65B:     "65B",
}

func ParseModelType(s string) (ModelType, error) {
	for modelType, name := range modelTypeNames {
		if modelType != ModelTypeUnknown && strings.EqualFold(name, s) {
			return modelType, nil
		}
	}
	return ModelTypeUnknown, ErrUnknownModelType
}

func (m ModelType) String() string {
	if name, found := modelTypeNames[m]; found {
		return name
	}
	return modelTypeNames[ModelTypeUnknown]
}

// NumPyTorchModelParts is the number of consolidated.*.pth checkpoint shards the original PyTorch weights are split into.
func (m ModelType) NumPyTorchModelParts() int {
	switch m {
	case ModelType7B:
		return 1
	case ModelType13B:
		return 2
	case ModelType30B:
		return 4
	case ModelType65B:
		return 8
	default:
		return 0
	}
}

// ModelTypeForParts is the inverse of NumPyTorchModelParts.
func ModelTypeForParts(parts int) ModelType {
	for _, modelType := range []ModelType{ModelType7B, ModelType13B, ModelType30B, ModelType65B} {
		if modelType.NumPyTorchModelParts() == parts {
			return modelType
		}
	}
	return ModelTypeUnknown
}
