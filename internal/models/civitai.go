package models

import "encoding/json"

// SidecarInfo is the parsed form of a `<basename>.info` /
// `<basename>.civitai.info` companion file. Only the fields the scanner
// cares about are decoded; everything else is ignored.
type SidecarInfo struct {
	ModelID      int64          `json:"modelId"`
	BaseModel    string         `json:"baseModel"`
	TrainedWords []string       `json:"trainedWords"`
	Images       []CivitaiImage `json:"images"`
	Description  string         `json:"description"`
	ModelURL     string         `json:"modelUrl"`
}

// CivitaiImage accepts both forms the registry (and older sidecars) emit:
// a bare URL string or an object with a `url` field. It is normalized to
// the URL immediately at the boundary.
type CivitaiImage struct {
	URL string
}

func (i *CivitaiImage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.URL = s
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	i.URL = obj.URL
	return nil
}

func (i CivitaiImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.URL)
}

// ImageURLs returns the normalized image list.
func (s *SidecarInfo) ImageURLs() []string {
	urls := make([]string, 0, len(s.Images))
	for _, img := range s.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}

// ModelDescription is what the model-description endpoint returns,
// regardless of whether it was served from a sidecar, the in-memory cache
// or a live registry call.
type ModelDescription struct {
	ModelID      int64    `json:"modelId"`
	Description  string   `json:"description"`
	TrainedWords []string `json:"trainedWords,omitempty"`
	Images       []string `json:"images,omitempty"`
	ModelURL     string   `json:"modelUrl,omitempty"`
	Source       string   `json:"source"`
}

// TagAnalysis is the normalized shape of the generative-text
// classification: shared base tags plus named variation groups.
type TagAnalysis struct {
	Base       []string            `json:"base"`
	Variations []TagVariationGroup `json:"variations"`
	Skipped    []string            `json:"skipped,omitempty"`
}

type TagVariationGroup struct {
	Name    string   `json:"name"`
	Prompts []string `json:"prompts"`
}
