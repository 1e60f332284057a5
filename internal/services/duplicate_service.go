package services

import (
	"fmt"
	"sort"
	"strings"

	"Musebox/internal/helpers"
	"Musebox/internal/models"
)

// DuplicateService groups scanned file nodes that look like copies of the
// same asset. The key is the lowercased name with any " (n)" copy counter
// stripped, plus the exact byte size. No content hashing happens, so two
// unrelated files can collide on the key; that imprecision is accepted.
type DuplicateService interface {
	FindDuplicates(files []*models.AssetNode) []models.DuplicateSet
}

type duplicateServiceImpl struct{}

func NewDuplicateService() DuplicateService {
	return &duplicateServiceImpl{}
}

func (s *duplicateServiceImpl) FindDuplicates(files []*models.AssetNode) []models.DuplicateSet {
	groups := map[string][]*models.AssetNode{}
	for _, f := range files {
		if f.Kind != models.NodeFile {
			continue
		}
		key := fmt.Sprintf("%s|%d", strings.ToLower(helpers.StripCounterSuffix(f.Name)), f.Size)
		groups[key] = append(groups[key], f)
	}

	var sets []models.DuplicateSet
	for key, nodes := range groups {
		if len(nodes) < 2 {
			continue
		}
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
		sets = append(sets, models.DuplicateSet{
			Key:   key,
			Size:  nodes[0].Size,
			Nodes: nodes,
		})
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Key < sets[j].Key })
	return sets
}
