package action

import (
	"fmt"
	"strings"

	"github.com/rbright/deckmix/internal/audio"
	"github.com/rbright/deckmix/internal/settings"
)

const (
	volumeMax         = 100
	volumeExtendedMax = 150
	adjustLimit       = 50
	boundsMax         = 150
)

// options is the typed view of one instance's settings record.
type options struct {
	filter         audio.Filter
	pulseName      string
	deviceLabel    string
	useStandard    bool
	volumeAdjust   int
	volumeBounds   int
	volume         int
	volumeExtend   bool
	showInfo       bool
	infoContent    string
	showDeviceName bool
	nick           string
	behaviour      string
}

func parseOptions(kind Kind, s settings.Settings) (options, error) {
	filter, err := audio.ParseFilter(s.String(KeyDeviceFilter, string(audio.FilterSink)))
	if err != nil {
		return options{}, err
	}

	defaultAdjust := 0
	if kind == KindDial {
		defaultAdjust = 1
	}

	opts := options{
		filter:         filter,
		pulseName:      strings.TrimSpace(s.String(KeyPulseName, "")),
		deviceLabel:    strings.TrimSpace(s.String(KeyDeviceName, "")),
		useStandard:    s.Bool(KeyUseStandard, false),
		volumeAdjust:   s.Int(KeyVolumeAdjust, defaultAdjust),
		volumeBounds:   s.Int(KeyVolumeBounds, volumeMax),
		volume:         s.Int(KeyVolume, 0),
		volumeExtend:   s.Bool(KeyVolumeExtend, false),
		showInfo:       s.Bool(KeyShowInfo, false),
		infoContent:    strings.ToLower(s.String(KeyInfoContent, InfoVolume)),
		showDeviceName: s.Bool(KeyShowDeviceName, false),
		nick:           s.String(KeyNick, ""),
		behaviour:      strings.ToLower(s.String(KeyBehaviour, BehaviourMute)),
	}

	if opts.infoContent != InfoVolume && opts.infoContent != InfoAdjustment {
		return options{}, fmt.Errorf("%s must be %q or %q", KeyInfoContent, InfoVolume, InfoAdjustment)
	}
	if opts.behaviour != BehaviourMute && opts.behaviour != BehaviourSetVolume {
		return options{}, fmt.Errorf("%s must be %q or %q", KeyBehaviour, BehaviourMute, BehaviourSetVolume)
	}
	if opts.volumeAdjust < -adjustLimit || opts.volumeAdjust > adjustLimit {
		return options{}, fmt.Errorf("%s must be between %d and %d", KeyVolumeAdjust, -adjustLimit, adjustLimit)
	}
	if opts.volumeBounds < 0 || opts.volumeBounds > boundsMax {
		return options{}, fmt.Errorf("%s must be between 0 and %d", KeyVolumeBounds, boundsMax)
	}
	if opts.volume < 0 || opts.volume > volumeExtendedMax {
		return options{}, fmt.Errorf("%s must be between 0 and %d", KeyVolume, volumeExtendedMax)
	}
	return opts, nil
}

func (o options) selector() audio.Selector {
	return audio.Selector{Filter: o.filter, Name: o.pulseName, UseDefault: o.useStandard}
}

// targetVolume caps the configured absolute volume.
func (o options) targetVolume() int {
	limit := volumeMax
	if o.volumeExtend {
		limit = volumeExtendedMax
	}
	if o.volume > limit {
		return limit
	}
	return o.volume
}
