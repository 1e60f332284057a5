package dto

import "time"

// AssetGetDTO is the wire shape of one node in the model-file tree
// listing. SizeLabel is derived for display; clients that sort still get
// the raw byte count.
type AssetGetDTO struct {
	Kind          string         `json:"kind"`
	Name          string         `json:"name"`
	Path          string         `json:"path"`
	Size          int64          `json:"size,omitempty"`
	SizeLabel     string         `json:"sizeLabel,omitempty"`
	MTime         *time.Time     `json:"mtime,omitempty"`
	PreviewPath   string         `json:"previewPath,omitempty"`
	ModelID       int64          `json:"modelId,omitempty"`
	TrainedWords  []string       `json:"trainedWords,omitempty"`
	Generation    string         `json:"generation,omitempty"`
	CivitaiImages []string       `json:"civitaiImages,omitempty"`
	CivitaiURL    string         `json:"civitaiUrl,omitempty"`
	Children      []*AssetGetDTO `json:"children,omitempty"`
}
