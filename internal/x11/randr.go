package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/spanwm/internal/monitor"
	"github.com/1broseidon/spanwm/internal/platform"
)

// RandR implements the topology queries over the RandR extension. The
// configuration timestamp from the last Resources call is reused for every
// later request, as the server requires.
type RandR struct {
	conn     *Conn
	configTs xproto.Timestamp
}

var _ monitor.RandR = (*RandR)(nil)

func NewRandR(c *Conn) *RandR {
	return &RandR{conn: c}
}

func (r *RandR) Resources() (platform.ScreenResources, error) {
	reply, err := randr.GetScreenResources(r.conn.XUtil.Conn(), r.conn.Root).Reply()
	if err != nil {
		return platform.ScreenResources{}, fmt.Errorf("get screen resources: %w", err)
	}
	r.configTs = reply.ConfigTimestamp

	res := platform.ScreenResources{
		Crtcs:   make([]uint32, 0, len(reply.Crtcs)),
		Outputs: make([]uint32, 0, len(reply.Outputs)),
		Modes:   make([]platform.ModeInfo, 0, len(reply.Modes)),
	}
	for _, c := range reply.Crtcs {
		res.Crtcs = append(res.Crtcs, uint32(c))
	}
	for _, o := range reply.Outputs {
		res.Outputs = append(res.Outputs, uint32(o))
	}
	for _, m := range reply.Modes {
		res.Modes = append(res.Modes, platform.ModeInfo{ID: m.Id, Width: int(m.Width), Height: int(m.Height)})
	}
	return res, nil
}

func (r *RandR) OutputInfo(id uint32) (platform.OutputInfo, error) {
	reply, err := randr.GetOutputInfo(r.conn.XUtil.Conn(), randr.Output(id), r.configTs).Reply()
	if err != nil {
		return platform.OutputInfo{}, fmt.Errorf("get output %d: %w", id, err)
	}
	info := platform.OutputInfo{
		ID:   id,
		Name: string(reply.Name),
		Crtc: uint32(reply.Crtc),
	}
	switch reply.Connection {
	case randr.ConnectionConnected:
		info.Connection = platform.OutputConnected
	case randr.ConnectionDisconnected:
		info.Connection = platform.OutputDisconnected
	default:
		info.Connection = platform.OutputUnknown
	}
	for _, c := range reply.Crtcs {
		info.Crtcs = append(info.Crtcs, uint32(c))
	}
	for _, m := range reply.Modes {
		info.Modes = append(info.Modes, uint32(m))
	}
	return info, nil
}

func (r *RandR) CrtcInfo(id uint32) (platform.CrtcInfo, error) {
	reply, err := randr.GetCrtcInfo(r.conn.XUtil.Conn(), randr.Crtc(id), r.configTs).Reply()
	if err != nil {
		return platform.CrtcInfo{}, fmt.Errorf("get crtc %d: %w", id, err)
	}
	info := platform.CrtcInfo{
		ID:       id,
		X:        int(reply.X),
		Y:        int(reply.Y),
		Width:    int(reply.Width),
		Height:   int(reply.Height),
		Mode:     uint32(reply.Mode),
		Rotation: rotationFromRandR(reply.Rotation),
	}
	for _, o := range reply.Outputs {
		info.Outputs = append(info.Outputs, uint32(o))
	}
	return info, nil
}

func (r *RandR) SetCrtcConfig(crtc uint32, cfg platform.CrtcConfig) error {
	outputs := make([]randr.Output, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		outputs = append(outputs, randr.Output(o))
	}
	reply, err := randr.SetCrtcConfig(r.conn.XUtil.Conn(), randr.Crtc(crtc),
		xproto.TimeCurrentTime, r.configTs,
		int16(cfg.X), int16(cfg.Y), randr.Mode(cfg.Mode),
		rotationToRandR(cfg.Rotation), outputs).Reply()
	if err != nil {
		return fmt.Errorf("set crtc %d: %w", crtc, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("set crtc %d: status %d", crtc, reply.Status)
	}
	return nil
}

func (r *RandR) DisableCrtc(crtc uint32) error {
	return r.SetCrtcConfig(crtc, platform.CrtcConfig{Rotation: platform.Rotate0})
}

func (r *RandR) SetScreenSize(width, height, mmWidth, mmHeight int) error {
	err := randr.SetScreenSizeChecked(r.conn.XUtil.Conn(), r.conn.Root,
		uint16(width), uint16(height), uint32(mmWidth), uint32(mmHeight)).Check()
	if err != nil {
		return fmt.Errorf("set screen size %dx%d: %w", width, height, err)
	}
	return nil
}
