package action

import (
	"strconv"

	"github.com/rbright/deckmix/internal/assets"
	"github.com/rbright/deckmix/internal/audio"
)

// Display is the rendered state of one instance.
type Display struct {
	Instance string       `json:"instance"`
	Action   Kind         `json:"action"`
	Top      string       `json:"top"`
	Bottom   string       `json:"bottom"`
	Icon     assets.Icon  `json:"icon"`
	Color    assets.Color `json:"color"`
	Device   string       `json:"device,omitempty"`
	Muted    bool         `json:"muted"`
	Volume   *int         `json:"volume,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// HasError reports whether the last operation on the instance failed.
func (d Display) HasError() bool {
	return d.Error != ""
}

func topLabel(opts options, dev *audio.Device, cachedLabel string) string {
	if !opts.showDeviceName {
		return ""
	}
	if opts.nick != "" {
		return opts.nick
	}
	if dev != nil {
		return dev.Label()
	}
	return cachedLabel
}

func bottomLabel(kind Kind, opts options, dev *audio.Device) string {
	if kind == KindVolumeDisplay {
		if v, ok := firstVolume(dev); ok {
			return strconv.Itoa(v) + "%"
		}
		return "N/A"
	}

	if !opts.showInfo {
		return ""
	}
	if opts.infoContent == InfoAdjustment {
		return adjustmentText(kind, opts)
	}
	if v, ok := firstVolume(dev); ok {
		return strconv.Itoa(v)
	}
	return "N/A"
}

func adjustmentText(kind Kind, opts options) string {
	switch kind {
	case KindSetVolume:
		return strconv.Itoa(opts.targetVolume())
	case KindAdjustVolume, KindDial:
		return strconv.Itoa(opts.volumeAdjust)
	default:
		return ""
	}
}

func iconName(kind Kind, opts options, dev *audio.Device) string {
	switch kind {
	case KindSetVolume, KindVolumeDisplay:
		return assets.IconVolume
	case KindAdjustVolume:
		if opts.volumeAdjust >= 0 {
			return assets.IconVolUp
		}
		return assets.IconVolDown
	default:
		if dev != nil && dev.Muted {
			return assets.IconMute
		}
		return assets.IconAudio
	}
}

func firstVolume(dev *audio.Device) (int, bool) {
	if dev == nil {
		return 0, false
	}
	volumes := dev.Percentages()
	if len(volumes) == 0 {
		return 0, false
	}
	return volumes[0], true
}
