package mapper

import (
	"Musebox/internal/dto"
	"Musebox/internal/helpers"
	"Musebox/internal/models"
)

func ToAssetGetDTO(node *models.AssetNode) *dto.AssetGetDTO {
	childrenDTOs := make([]*dto.AssetGetDTO, 0, len(node.Children))
	for _, child := range node.Children {
		childrenDTOs = append(childrenDTOs, ToAssetGetDTO(child))
	}

	assetDTO := &dto.AssetGetDTO{
		Kind:          node.Kind,
		Name:          node.Name,
		Path:          node.Path,
		Size:          node.Size,
		MTime:         node.MTime,
		PreviewPath:   node.PreviewPath,
		ModelID:       node.ModelID,
		TrainedWords:  node.TrainedWords,
		Generation:    node.Generation,
		CivitaiImages: node.CivitaiImages,
		CivitaiURL:    node.CivitaiURL,
		Children:      childrenDTOs,
	}
	if node.Kind == models.NodeFile {
		assetDTO.SizeLabel = helpers.FormatBytes(node.Size)
	}
	return assetDTO
}

func ToAssetGetDTOs(nodes []*models.AssetNode) []*dto.AssetGetDTO {
	assetDTOs := make([]*dto.AssetGetDTO, 0, len(nodes))
	for _, node := range nodes {
		assetDTOs = append(assetDTOs, ToAssetGetDTO(node))
	}
	return assetDTOs
}
