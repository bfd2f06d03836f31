// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"github.com/StackExchange/wmi"
	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/xerrors"
)

// WmiMonitorBrightness lives in root\wmi and only has instances for
// panels with a vendor brightness driver, i.e. laptop screens.
type wmiMonitorBrightness struct {
	InstanceName      string
	CurrentBrightness uint8
}

const wmiNamespace = `root\wmi`

// wmiPanelBrightness reads the built-in panel brightness as a
// percentage. An empty result set means no WMI controlled panel.
func wmiPanelBrightness() (uint8, error) {
	var entries []wmiMonitorBrightness
	q := "SELECT InstanceName, CurrentBrightness FROM WmiMonitorBrightness"
	if err := wmi.QueryNamespace(q, &entries, wmiNamespace); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, xerrors.New("display: no WMI brightness instance")
	}
	return entries[0].CurrentBrightness, nil
}

func hasWMIPanel() bool {
	_, err := wmiPanelBrightness()
	return err == nil
}

// wmiSetPanelBrightness drives WmiSetBrightness on every
// WmiMonitorBrightnessMethods instance. percent is 0..100.
func wmiSetPanelBrightness(percent uint8) error {
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err != nil {
		oleCode := err.(*ole.OleError).Code()
		if oleCode != uintptr(ole.S_OK) && oleCode != uintptr(ole.S_FALSE) {
			return err
		}
	}
	defer ole.CoUninitialize()

	locator, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return err
	}
	defer locator.Release()
	dispatch, err := locator.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return err
	}
	defer dispatch.Release()

	serviceRaw, err := oleutil.CallMethod(dispatch, "ConnectServer", nil, wmiNamespace)
	if err != nil {
		return err
	}
	service := serviceRaw.ToIDispatch()
	defer service.Release()

	resultRaw, err := oleutil.CallMethod(service, "ExecQuery",
		"SELECT * FROM WmiMonitorBrightnessMethods")
	if err != nil {
		return err
	}
	result := resultRaw.ToIDispatch()
	defer result.Release()

	countVar, err := oleutil.GetProperty(result, "Count")
	if err != nil {
		return err
	}
	count := int(countVar.Val)
	if count == 0 {
		return xerrors.New("display: no WMI brightness methods instance")
	}
	for i := 0; i < count; i++ {
		itemRaw, err := oleutil.CallMethod(result, "ItemIndex", i)
		if err != nil {
			return err
		}
		item := itemRaw.ToIDispatch()
		_, err = oleutil.CallMethod(item, "WmiSetBrightness", uint32(1), uint32(percent))
		item.Release()
		if err != nil {
			return err
		}
	}
	return nil
}
