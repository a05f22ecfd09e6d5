// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/uniform-watch/internal/config"
	"github.com/tamzrod/uniform-watch/internal/status"
	wmodbus "github.com/tamzrod/uniform-watch/internal/writer/modbus"
)

// BuildPlan converts the export config into a StatusPlan.
// Assumes config has already been validated and normalized.
func BuildPlan(e cfg.ExportConfig) (StatusPlan, error) {
	if !e.IsEnabled() {
		return StatusPlan{}, errors.New("writer: export.endpoint required")
	}
	if int(e.BaseSlot)*status.SlotsPerDevice+status.SlotsPerDevice > 0x10000 {
		return StatusPlan{}, fmt.Errorf("writer: base slot %d exceeds register space", e.BaseSlot)
	}

	return StatusPlan{
		Endpoint:   e.Endpoint,
		UnitID:     e.UnitID,
		BaseSlot:   e.BaseSlot,
		DeviceName: e.DeviceName,
	}, nil
}

// Build creates the exporter and its endpoint client.
// The returned close func releases the TCP connection.
func Build(e cfg.ExportConfig) (*Exporter, func() error, error) {
	plan, err := BuildPlan(e)
	if err != nil {
		return nil, nil, err
	}

	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: e.Endpoint,
		Timeout:  time.Duration(e.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	return NewExporter(NewStatusWriter(plan, cli)), cli.Close, nil
}
