package models

import "time"

const (
	NodeDirectory = "directory"
	NodeFile      = "file"
)

// AssetNode is one entry in the scanned model-file tree. Path is always
// relative to the configured root and uses forward slashes, which makes it
// the join key into the metadata overlay.
type AssetNode struct {
	Kind     string       `json:"kind"`
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Children []*AssetNode `json:"children,omitempty"`

	Size          int64      `json:"size,omitempty"`
	MTime         *time.Time `json:"mtime,omitempty"`
	PreviewPath   string     `json:"previewPath,omitempty"`
	ModelID       int64      `json:"modelId,omitempty"`
	TrainedWords  []string   `json:"trainedWords,omitempty"`
	Generation    string     `json:"generation,omitempty"`
	CivitaiImages []string   `json:"civitaiImages,omitempty"`
	CivitaiURL    string     `json:"civitaiUrl,omitempty"`
}

// MetaRecord is the per-path attribute bag. A record can outlive its file
// (stale entries linger until the janitor sweeps them) and a file can exist
// without a record, so every field is optional.
type MetaRecord struct {
	TriggerWords  string            `json:"triggerWords,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	FavoriteLists []string          `json:"favoriteLists,omitempty"`
	CivitaiURL    string            `json:"civitaiUrl,omitempty"`
	Order         *int              `json:"order,omitempty"`
	CustomTags    []string          `json:"customTags,omitempty"`
	Alias         string            `json:"alias,omitempty"`
	TagImages     map[string]string `json:"tagImages,omitempty"`
	CivitaiImages []string          `json:"civitaiImages,omitempty"`
	Generation    string            `json:"generation,omitempty"`
}

// MetaPatch is a typed partial update for one MetaRecord. Nil fields are
// left untouched by a merge; non-nil fields replace the stored value.
type MetaPatch struct {
	TriggerWords  *string            `json:"triggerWords,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	FavoriteLists *[]string          `json:"favoriteLists,omitempty"`
	CivitaiURL    *string            `json:"civitaiUrl,omitempty"`
	Order         *int               `json:"order,omitempty"`
	CustomTags    *[]string          `json:"customTags,omitempty"`
	Alias         *string            `json:"alias,omitempty"`
	TagImages     *map[string]string `json:"tagImages,omitempty"`
	CivitaiImages *[]string          `json:"civitaiImages,omitempty"`
	Generation    *string            `json:"generation,omitempty"`
}

// Apply merges the patch into a record.
func (p MetaPatch) Apply(r *MetaRecord) {
	if p.TriggerWords != nil {
		r.TriggerWords = *p.TriggerWords
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.FavoriteLists != nil {
		r.FavoriteLists = *p.FavoriteLists
	}
	if p.CivitaiURL != nil {
		r.CivitaiURL = *p.CivitaiURL
	}
	if p.Order != nil {
		order := *p.Order
		r.Order = &order
	}
	if p.CustomTags != nil {
		r.CustomTags = *p.CustomTags
	}
	if p.Alias != nil {
		r.Alias = *p.Alias
	}
	if p.TagImages != nil {
		r.TagImages = *p.TagImages
	}
	if p.CivitaiImages != nil {
		r.CivitaiImages = *p.CivitaiImages
	}
	if p.Generation != nil {
		r.Generation = *p.Generation
	}
}

// DuplicateSet groups file nodes that share a normalized name and byte size.
// It is derived during a scan and never persisted.
type DuplicateSet struct {
	Key   string       `json:"key"`
	Size  int64        `json:"size"`
	Nodes []*AssetNode `json:"nodes"`
}
