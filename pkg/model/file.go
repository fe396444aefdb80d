package model

type RequiredFile struct {
	Path  string `json:"path" yaml:"path"`
	Found bool   `json:"found" yaml:"found"`
	Size  int64  `json:"size" yaml:"size"`
}
