// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/uesim/context"
)

func (mm *NasMm) HandleActiveCellChanged(hasCell bool) {
	old := mm.ue.HasActiveCell
	mm.ue.HasActiveCell = hasCell
	state := mm.ue.MmState

	if !hasCell {
		if !old {
			return
		}
		mm.log.Warnln("Active cell lost")
		switch state.Main() {
		case context.MmMainDeregistered:
			if state.Sub() != context.MmSubNoSupi {
				mm.switchMmState(context.MmDeregisteredNoCellAvailable)
			}
		case context.MmMainRegistered:
			mm.switchMmState(context.MmRegisteredNoCellAvailable)
		}
		return
	}

	if !old {
		mm.log.Infoln("Active cell available")
	}
	sub := state.Sub()
	if sub != context.MmSubNoCellAvailable && sub != context.MmSubPlmnSearch {
		return
	}
	switch state.Main() {
	case context.MmMainDeregistered:
		mm.switchMmState(context.MmDeregisteredNormalService)
	case context.MmMainRegistered:
		mm.switchMmState(context.MmRegisteredNormalService)
	}
}

func (mm *NasMm) HandleRrcConnectionSetup() {
	mm.switchCmState(context.CmConnected)
}

func (mm *NasMm) HandleRrcConnectionRelease() {
	mm.switchCmState(context.CmIdle)
}

func (mm *NasMm) HandleRadioLinkFailure() {
	mm.log.Errorln("Radio link failure detected")
	mm.switchCmState(context.CmIdle)
}
