package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	missions "dronelink-cloud/internal/missions/domain"
)

// BuildMissionPDF renders a minimal PDF summary for a mission.
func BuildMissionPDF(mission *missions.Mission) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Mission Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Mission: %s", mission.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Drone: %s", mission.DroneID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", mission.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Created: %s", mission.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	var waypoints []map[string]any
	if len(mission.Waypoints) > 0 {
		_ = json.Unmarshal(mission.Waypoints, &waypoints)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Waypoints (%d)", len(waypoints)))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for i, wp := range waypoints {
		line := fmt.Sprintf("%d.", i+1)
		for _, key := range []string{"lat", "lon", "alt"} {
			if value, ok := wp[key]; ok {
				line += fmt.Sprintf(" %s=%v", key, value)
			}
		}
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
