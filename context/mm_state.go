// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

type RmState uint8

const (
	RmDeregistered RmState = iota
	RmRegistered
)

func (s RmState) String() string {
	if s == RmRegistered {
		return "RM-REGISTERED"
	}
	return "RM-DEREGISTERED"
}

type CmState uint8

const (
	CmIdle CmState = iota
	CmConnected
)

func (s CmState) String() string {
	if s == CmConnected {
		return "CM-CONNECTED"
	}
	return "CM-IDLE"
}

// UState is the 5GS update status.
type UState uint8

const (
	U1Updated UState = iota
	U2NotUpdated
	U3RoamingNotAllowed
)

func (s UState) String() string {
	switch s {
	case U1Updated:
		return "5U1-UPDATED"
	case U2NotUpdated:
		return "5U2-NOT-UPDATED"
	default:
		return "5U3-ROAMING-NOT-ALLOWED"
	}
}

type MmMain uint8

const (
	MmMainNull MmMain = iota
	MmMainDeregistered
	MmMainRegisteredInitiated
	MmMainRegistered
	MmMainDeregisteredInitiated
	MmMainServiceRequestInitiated
)

var mmMainNames = map[MmMain]string{
	MmMainNull:                    "MM-NULL",
	MmMainDeregistered:            "MM-DEREGISTERED",
	MmMainRegisteredInitiated:     "MM-REGISTERED-INITIATED",
	MmMainRegistered:              "MM-REGISTERED",
	MmMainDeregisteredInitiated:   "MM-DEREGISTERED-INITIATED",
	MmMainServiceRequestInitiated: "MM-SERVICE-REQUEST-INITIATED",
}

func (m MmMain) String() string {
	return mmMainNames[m]
}

type MmSub uint8

const (
	MmSubNa MmSub = iota
	MmSubNormalService
	MmSubLimitedService
	MmSubAttemptingRegistration
	MmSubPlmnSearch
	MmSubNoSupi
	MmSubNoCellAvailable
	MmSubEcallInactive
	MmSubInitialRegistrationNeeded
	MmSubNonAllowedService
	MmSubAttemptingRegistrationUpdate
	MmSubUpdateNeeded
)

var mmSubNames = map[MmSub]string{
	MmSubNa:                           "NA",
	MmSubNormalService:                "NORMAL-SERVICE",
	MmSubLimitedService:               "LIMITED-SERVICE",
	MmSubAttemptingRegistration:       "ATTEMPTING-REGISTRATION",
	MmSubPlmnSearch:                   "PLMN-SEARCH",
	MmSubNoSupi:                       "NO-SUPI",
	MmSubNoCellAvailable:              "NO-CELL-AVAILABLE",
	MmSubEcallInactive:                "ECALL-INACTIVE",
	MmSubInitialRegistrationNeeded:    "INITIAL-REGISTRATION-NEEDED",
	MmSubNonAllowedService:            "NON-ALLOWED-SERVICE",
	MmSubAttemptingRegistrationUpdate: "ATTEMPTING-REGISTRATION-UPDATE",
	MmSubUpdateNeeded:                 "UPDATE-NEEDED",
}

func (s MmSub) String() string {
	return mmSubNames[s]
}

// MmState is the compound MM state. Only the valid (state, sub-state)
// pairs below exist, and being constants they cannot be reassigned.
type MmState uint8

const (
	MmNullNa MmState = iota

	MmDeregisteredNa
	MmDeregisteredNormalService
	MmDeregisteredLimitedService
	MmDeregisteredAttemptingRegistration
	MmDeregisteredPlmnSearch
	MmDeregisteredNoSupi
	MmDeregisteredNoCellAvailable
	MmDeregisteredEcallInactive
	MmDeregisteredInitialRegistrationNeeded

	MmRegisteredInitiatedNa

	MmRegisteredNa
	MmRegisteredNormalService
	MmRegisteredNonAllowedService
	MmRegisteredAttemptingRegistrationUpdate
	MmRegisteredLimitedService
	MmRegisteredPlmnSearch
	MmRegisteredNoCellAvailable
	MmRegisteredUpdateNeeded

	MmDeregisteredInitiatedNa
	MmServiceRequestInitiatedNa

	mmStateCount
)

var mmStatePairs = [mmStateCount]struct {
	main MmMain
	sub  MmSub
}{
	MmNullNa: {MmMainNull, MmSubNa},

	MmDeregisteredNa:                        {MmMainDeregistered, MmSubNa},
	MmDeregisteredNormalService:             {MmMainDeregistered, MmSubNormalService},
	MmDeregisteredLimitedService:            {MmMainDeregistered, MmSubLimitedService},
	MmDeregisteredAttemptingRegistration:    {MmMainDeregistered, MmSubAttemptingRegistration},
	MmDeregisteredPlmnSearch:                {MmMainDeregistered, MmSubPlmnSearch},
	MmDeregisteredNoSupi:                    {MmMainDeregistered, MmSubNoSupi},
	MmDeregisteredNoCellAvailable:           {MmMainDeregistered, MmSubNoCellAvailable},
	MmDeregisteredEcallInactive:             {MmMainDeregistered, MmSubEcallInactive},
	MmDeregisteredInitialRegistrationNeeded: {MmMainDeregistered, MmSubInitialRegistrationNeeded},

	MmRegisteredInitiatedNa: {MmMainRegisteredInitiated, MmSubNa},

	MmRegisteredNa:                           {MmMainRegistered, MmSubNa},
	MmRegisteredNormalService:                {MmMainRegistered, MmSubNormalService},
	MmRegisteredNonAllowedService:            {MmMainRegistered, MmSubNonAllowedService},
	MmRegisteredAttemptingRegistrationUpdate: {MmMainRegistered, MmSubAttemptingRegistrationUpdate},
	MmRegisteredLimitedService:               {MmMainRegistered, MmSubLimitedService},
	MmRegisteredPlmnSearch:                   {MmMainRegistered, MmSubPlmnSearch},
	MmRegisteredNoCellAvailable:              {MmMainRegistered, MmSubNoCellAvailable},
	MmRegisteredUpdateNeeded:                 {MmMainRegistered, MmSubUpdateNeeded},

	MmDeregisteredInitiatedNa:   {MmMainDeregisteredInitiated, MmSubNa},
	MmServiceRequestInitiatedNa: {MmMainServiceRequestInitiated, MmSubNa},
}

// AllMmStates lists every valid (state, sub-state) pair.
func AllMmStates() []MmState {
	states := make([]MmState, 0, mmStateCount)
	for s := MmNullNa; s < mmStateCount; s++ {
		states = append(states, s)
	}
	return states
}

func (s MmState) Main() MmMain {
	return mmStatePairs[s].main
}

func (s MmState) Sub() MmSub {
	return mmStatePairs[s].sub
}

func (s MmState) Is(main MmMain) bool {
	return s.Main() == main
}

func (s MmState) String() string {
	return s.Main().String() + "/" + s.Sub().String()
}
