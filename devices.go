package serialdma

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Device describes a serial device that a TTYEngine can be opened on.
type Device struct {
	ID          PortID // registry identity, the device path
	Path        string
	Kind        string // device family, e.g. "usb-serial"
	Description string
	Driver      string // kernel driver name from sysfs, if known
}

// deviceFamily matches one family of kernel tty names.
type deviceFamily struct {
	pattern     *regexp.Regexp
	kind        string
	description string
}

// Most specific prefixes first: ttyS must not shadow ttySAC.
var deviceFamilies = []deviceFamily{
	{regexp.MustCompile(`^ttyUSB\d+$`), "usb-serial", "USB Serial Port"},
	{regexp.MustCompile(`^ttyACM\d+$`), "usb-acm", "USB CDC/ACM Device"},
	{regexp.MustCompile(`^ttyAMA\d+$`), "pl011", "ARM Serial Port"},
	{regexp.MustCompile(`^ttymxc\d+$`), "imx", "i.MX Serial Port"},
	{regexp.MustCompile(`^ttySAC\d+$`), "samsung", "Samsung Serial Port"},
	{regexp.MustCompile(`^ttyTHS\d+$`), "tegra", "Tegra Serial Port"},
	{regexp.MustCompile(`^ttyO\d+$`), "omap", "OMAP Serial Port"},
	{regexp.MustCompile(`^ttyS\d+$`), "8250", "Standard Serial Port"},
}

const devRoot = "/dev"

// sysTTYDir is a variable so tests can point it at a fixture tree.
var sysTTYDir = "/sys/class/tty"

// ListDevices returns the serial devices present on the system, sorted by
// path. Virtual terminals and pseudo-terminals are never listed.
func ListDevices() ([]Device, error) {
	entries, err := os.ReadDir(devRoot)
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, entry := range entries {
		fam, ok := classify(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(devRoot, entry.Name())
		if !isCharacterDevice(path) {
			continue
		}
		devices = append(devices, describe(path, fam))
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

// LookupDevice returns the description of a single device path.
func LookupDevice(path string) (Device, error) {
	if !isCharacterDevice(path) {
		return Device{}, ErrDeviceNotFound
	}
	fam, ok := classify(filepath.Base(path))
	if !ok {
		fam = deviceFamily{kind: "tty", description: "Serial Port"}
	}
	return describe(path, fam), nil
}

func classify(name string) (deviceFamily, bool) {
	for _, fam := range deviceFamilies {
		if fam.pattern.MatchString(name) {
			return fam, true
		}
	}
	return deviceFamily{}, false
}

func describe(path string, fam deviceFamily) Device {
	return Device{
		ID:          PortID(path),
		Path:        path,
		Kind:        fam.kind,
		Description: fam.description,
		Driver:      ttyDriver(filepath.Base(path)),
	}
}

// ttyDriver resolves /sys/class/tty/<name>/device/driver to the driver name.
func ttyDriver(name string) string {
	target, err := os.Readlink(filepath.Join(sysTTYDir, name, "device", "driver"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(filepath.Base(target))
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
