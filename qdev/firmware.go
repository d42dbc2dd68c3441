package qdev

import "strings"

// FirmwarePath computes dev's OpenFirmware-style device path by walking
// the tree from the root to dev, letting each ancestor bus kind's
// optional GetFirmwarePath override the default (device-kind-name)
// segment. Results are memoized per device id and invalidated whenever
// the tree is mutated.
func (m *Machine) FirmwarePath(dev *Device) string {
	key := m.ids.keyFor(dev)
	if cached, found := m.firmwareCache.Get(key); found {
		return cached.(string)
	}

	chain := deviceChain(dev)
	segs := make([]string, 0, len(chain))
	for _, d := range chain {
		seg := d.kind.Name
		if d.parent != nil && d.parent.kind.GetFirmwarePath != nil {
			if custom := d.parent.kind.GetFirmwarePath(d); custom != "" {
				seg = custom
			}
		}
		segs = append(segs, seg)
	}

	path := "/" + strings.Trim(strings.Join(segs, "/"), "/")
	m.firmwareCache.Set(key, path, 0)
	return path
}

// deviceChain returns the root-to-leaf chain of devices ending at dev.
func deviceChain(dev *Device) []*Device {
	var chain []*Device
	cur := dev
	for cur != nil {
		chain = append([]*Device{cur}, chain...)
		if cur.parent == nil || cur.parent.parent == nil {
			break
		}
		cur = cur.parent.parent
	}
	return chain
}
