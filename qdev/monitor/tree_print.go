package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/lalithsuresh/qdevcore/qdev"
)

// InfoTree renders an info-qtree-style report of the whole device tree
// into w, starting from the machine's root bus.
func InfoTree(m *qdev.Machine, w io.Writer) {
	bus, err := m.ResolveBusPath("/", false)
	if err != nil {
		fmt.Fprintf(w, "(empty tree)\n")
		return
	}
	printBus(w, bus, 0)
}

func printBus(w io.Writer, bus *qdev.Bus, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sbus: %s\n", indent, bus.Name())

	for _, dev := range bus.Children() {
		printDevice(w, dev, depth+1)
	}
}

func printDevice(w io.Writer, dev *qdev.Device, depth int) {
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%sdev: %s", indent, dev.Kind().Name)
	if dev.ID() != "" {
		line += fmt.Sprintf(", id %q", dev.ID())
	}
	if printer := dev.Parent().Kind().PrintDev; printer != nil {
		if extra := printer(dev); extra != "" {
			line += ", " + extra
		}
	}
	if n := dev.NumInputGPIOs(); n > 0 {
		line += fmt.Sprintf(", gpio-in %d", n)
	}
	if n := dev.NumOutputGPIOs(); n > 0 {
		line += fmt.Sprintf(", gpio-out %d", n)
	}
	fmt.Fprintln(w, line)

	propIndent := strings.Repeat("  ", depth+1)
	for _, p := range dev.Properties() {
		v, ok := dev.Prop(p.Name)
		if !ok {
			continue
		}
		text, err := p.Kind.Print(v)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%sprop %s = %s\n", propIndent, p.Name, text)
	}

	for _, b := range dev.ChildBuses() {
		printBus(w, b, depth+1)
	}
}
