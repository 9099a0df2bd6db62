package gamedata

import (
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// PositionDocument is a build location in walk tiles
type PositionDocument struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// PlanItemDocument is one committed plan entry as served to clients
type PlanItemDocument struct {
	Frame    int               `json:"frame" yaml:"frame"`
	GameTime string            `json:"game_time" yaml:"game_time"`
	In       int               `json:"in_frames" yaml:"in_frames"`
	Type     string            `json:"type" yaml:"type"`
	Position *PositionDocument `json:"position,omitempty" yaml:"position,omitempty"`
}

// PlanDocuments renders a committed plan relative to the current frame
func PlanDocuments(plan []autobuild.PlanItem, now int) []PlanItemDocument {
	out := make([]PlanItemDocument, 0, len(plan))
	for _, item := range plan {
		doc := PlanItemDocument{
			Frame:    item.Frame,
			GameTime: shared.FormatGameTime(item.Frame),
			In:       item.Frame - now,
			Type:     item.Entry.Type.Name,
		}
		if item.Entry.Pos.IsSet() {
			doc.Position = &PositionDocument{X: item.Entry.Pos.X, Y: item.Entry.Pos.Y}
		}
		out = append(out, doc)
	}
	return out
}
