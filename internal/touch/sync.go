package touch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/platform"
)

// SyncResult reports one broadcast of a transform.
type SyncResult struct {
	Rotation platform.Rotation `json:"rotation"`
	Devices  int               `json:"devices"`
	Updated  int               `json:"updated"`
	Failed   int               `json:"failed"`
}

// Syncer pushes the transform for a rotation to every touch device.
type Syncer struct {
	devices Devices
	log     zerolog.Logger
}

func NewSyncer(devices Devices, log zerolog.Logger) *Syncer {
	return &Syncer{devices: devices, log: log.With().Str("component", "touch").Logger()}
}

// Sync is a best effort broadcast: a failing device is logged and counted
// and the remaining devices are still updated. An error is returned only
// when devices cannot be listed.
func (s *Syncer) Sync(ctx context.Context, rot platform.Rotation) (SyncResult, error) {
	res := SyncResult{Rotation: rot}
	devices, err := s.devices.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list input devices: %w", err)
	}
	m := MatrixFor(rot)
	for _, d := range devices {
		if !d.Touch {
			continue
		}
		res.Devices++
		if err := s.devices.SetMatrix(ctx, d.ID, m); err != nil {
			res.Failed++
			s.log.Warn().Err(err).Int("device", d.ID).Str("name", d.Name).Msg("set touch transform failed")
			continue
		}
		res.Updated++
		s.log.Debug().Int("device", d.ID).Str("name", d.Name).Int("rotation", int(rot)).Msg("touch transform set")
	}
	return res, nil
}
