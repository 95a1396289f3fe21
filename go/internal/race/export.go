package race

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/racedash/go/internal/models"
)

// ExportFilename is the download name of an exported roster.
const ExportFilename = "drivers.json"

// MarshalExport renders drivers as the indented drivers.json document.
// An empty roster exports as {}.
func MarshalExport(drivers models.Drivers) ([]byte, error) {
	if drivers == nil {
		drivers = models.Drivers{}
	}
	data, err := json.MarshalIndent(drivers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// UnmarshalExport parses a drivers.json document.
func UnmarshalExport(data []byte) (models.Drivers, error) {
	drivers, err := models.DecodeDrivers(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return drivers, nil
}
