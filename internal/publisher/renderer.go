package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/hogyzen12/optimisoor/models"
)

// Artifact is one named output of a renderer, written into the cycle's
// working directory and swept into the day bucket with the snapshot.
type Artifact struct {
	Name string
	Data []byte
}

// Renderer turns a cycle report into publishable artifacts. Chart and image
// generation lives behind this boundary; the default implementation emits
// the structured reports as JSON.
type Renderer interface {
	Render(report *models.CycleReport) ([]Artifact, error)
}

// JSONRenderer writes the full cycle report plus one distribution file per
// asset, named after the asset's display name when metadata resolved.
type JSONRenderer struct{}

func (JSONRenderer) Render(report *models.CycleReport) ([]Artifact, error) {
	full, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cycle report: %w", err)
	}
	artifacts := []Artifact{{Name: "cycle_report.json", Data: full}}

	for _, asset := range report.Assets {
		label := asset.AssetID
		if meta, ok := report.Metadata[asset.AssetID]; ok && meta.Name != "" {
			label = meta.Name
		}
		data, err := json.MarshalIndent(asset, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode distribution for %s: %w", asset.AssetID, err)
		}
		artifacts = append(artifacts, Artifact{
			Name: fmt.Sprintf("%s_distribution.json", label),
			Data: data,
		})
	}
	return artifacts, nil
}
