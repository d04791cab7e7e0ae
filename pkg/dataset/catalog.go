// Package dataset locates, fetches and decodes cardiac atlas datasets.
package dataset

import (
	"path"
	"strings"

	"cardiacxr/pkg/scene"
)

// DefaultFile is the dataset shown at startup.
const DefaultFile = "02-350um-192x192x192_lra_grid.json"

// Sub-directories of the asset tree, one per dataset family.
const (
	HelicalDir     = "HelicalStructures"
	VentricularDir = "VentricularExamples"
	AtrialDir      = "AtrialExamples"
)

// SubDir returns the family directory a dataset lives in.
func SubDir(name string) string {
	switch {
	case strings.Contains(name, "Helix"):
		return HelicalDir
	case strings.Contains(name, "lrv"):
		return VentricularDir
	default:
		return AtrialDir
	}
}

// Path returns the slash-separated location of name below the asset root.
func Path(name string) string {
	return path.Join(SubDir(name), name)
}

// DefaultEntries is the stock selection slate.
func DefaultEntries() []scene.SlateEntry {
	return []scene.SlateEntry{
		{Label: "Atrial 01", Dataset: "01-350um-192x192x192_lra_grid.json"},
		{Label: "Atrial 02", Dataset: DefaultFile},
		{Label: "Atrial 03", Dataset: "03-350um-192x192x192_lra_grid.json"},
		{Label: "Ventricle 01", Dataset: "01-350um-192x192x192_lrv_grid.json"},
		{Label: "Ventricle 02", Dataset: "02-350um-192x192x192_lrv_grid.json"},
		{Label: "Helix", Dataset: "Helix-350um-192x192x192_grid.json"},
	}
}
