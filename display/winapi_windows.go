// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/xerrors"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")
	dxva2  = windows.NewLazySystemDLL("dxva2.dll")

	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")

	procCreateDCW          = gdi32.NewProc("CreateDCW")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSetDeviceGammaRamp = gdi32.NewProc("SetDeviceGammaRamp")

	procGetNumberOfPhysicalMonitors = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitors         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procDestroyPhysicalMonitors     = dxva2.NewProc("DestroyPhysicalMonitors")
	procGetMonitorBrightness        = dxva2.NewProc("GetMonitorBrightness")
	procSetMonitorBrightness        = dxva2.NewProc("SetMonitorBrightness")
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfoEx struct {
	Size    uint32
	Monitor winRect
	Work    winRect
	Flags   uint32
	Device  [32]uint16
}

const monitorInfoPrimary = 0x1

type physicalMonitor struct {
	Handle      windows.Handle
	Description [128]uint16
}

// winMonitor is one HMONITOR plus the physical monitor handles behind
// it. Laptop panels typically expose zero physical monitors.
type winMonitor struct {
	Handle    windows.Handle
	Device    string
	Primary   bool
	Physicals []physicalMonitor
}

func (m *winMonitor) description() string {
	if len(m.Physicals) == 0 {
		return ""
	}
	return windows.UTF16ToString(m.Physicals[0].Description[:])
}

// monitorAccum collects results across enum callback invocations; a
// pointer to it rides in the callback's lparam.
type monitorAccum struct {
	monitors []winMonitor
}

// The callback table the runtime backs NewCallback with is small and
// never freed, so the callback is registered exactly once.
var enumMonitorsCallback = syscall.NewCallback(
	func(hMonitor, hdc, rect, lparam uintptr) uintptr {
		acc := (*monitorAccum)(unsafe.Pointer(lparam))

		var info monitorInfoEx
		info.Size = uint32(unsafe.Sizeof(info))
		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&info)))
		mon := winMonitor{Handle: windows.Handle(hMonitor)}
		if ret != 0 {
			mon.Device = windows.UTF16ToString(info.Device[:])
			mon.Primary = info.Flags&monitorInfoPrimary != 0
		}

		var count uint32
		ret, _, _ = procGetNumberOfPhysicalMonitors.Call(hMonitor, uintptr(unsafe.Pointer(&count)))
		if ret != 0 && count > 0 {
			physicals := make([]physicalMonitor, count)
			ret, _, _ = procGetPhysicalMonitors.Call(hMonitor, uintptr(count),
				uintptr(unsafe.Pointer(&physicals[0])))
			if ret != 0 {
				mon.Physicals = physicals
			}
		}
		acc.monitors = append(acc.monitors, mon)
		return 1
	})

// enumMonitors walks every HMONITOR and resolves the DDC handles
// behind each. Callers own the physical handles and must release them
// with destroyPhysicalMonitors.
func enumMonitors() ([]winMonitor, error) {
	var acc monitorAccum
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, enumMonitorsCallback,
		uintptr(unsafe.Pointer(&acc)))
	if ret == 0 {
		return nil, xerrors.Errorf("EnumDisplayMonitors: %v", err)
	}
	return acc.monitors, nil
}

func destroyPhysicalMonitors(monitors []winMonitor) {
	for i := range monitors {
		p := monitors[i].Physicals
		if len(p) == 0 {
			continue
		}
		procDestroyPhysicalMonitors.Call(uintptr(len(p)), uintptr(unsafe.Pointer(&p[0])))
	}
}

// getMonitorBrightness reads the DDC brightness range of one physical
// monitor. All three values are in the monitor's native units.
func getMonitorBrightness(h windows.Handle) (min, cur, max uint32, err error) {
	ret, _, callErr := procGetMonitorBrightness.Call(uintptr(h),
		uintptr(unsafe.Pointer(&min)),
		uintptr(unsafe.Pointer(&cur)),
		uintptr(unsafe.Pointer(&max)))
	if ret == 0 {
		return 0, 0, 0, xerrors.Errorf("GetMonitorBrightness: %v", callErr)
	}
	return min, cur, max, nil
}

func setMonitorBrightness(h windows.Handle, value uint32) error {
	ret, _, callErr := procSetMonitorBrightness.Call(uintptr(h), uintptr(value))
	if ret == 0 {
		return xerrors.Errorf("SetMonitorBrightness: %v", callErr)
	}
	return nil
}

// setDeviceGamma loads a linear gamma ramp scaled by factor onto the
// device context of the named display, e.g. `\\.\DISPLAY1`.
func setDeviceGamma(device string, ramp []uint16) error {
	if len(ramp) != 256 {
		return xerrors.Errorf("gamma ramp size %d, want 256", len(ramp))
	}
	name, err := windows.UTF16PtrFromString(device)
	if err != nil {
		return err
	}
	hdc, _, callErr := procCreateDCW.Call(uintptr(unsafe.Pointer(name)), 0, 0, 0)
	if hdc == 0 {
		return xerrors.Errorf("CreateDCW %s: %v", device, callErr)
	}
	defer procDeleteDC.Call(hdc)

	var table [3][256]uint16
	for ch := 0; ch < 3; ch++ {
		copy(table[ch][:], ramp)
	}
	ret, _, callErr := procSetDeviceGammaRamp.Call(hdc, uintptr(unsafe.Pointer(&table)))
	if ret == 0 {
		return xerrors.Errorf("SetDeviceGammaRamp %s: %v", device, callErr)
	}
	return nil
}
