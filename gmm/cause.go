// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

// 5GMM cause values (3GPP TS 24.501 9.11.3.2) used by the UE side.
const (
	CauseIllegalUe                         uint8 = 0x03
	CauseIllegalMe                         uint8 = 0x06
	Cause5gsServicesNotAllowed             uint8 = 0x07
	CauseUeIdentityCannotBeDerived         uint8 = 0x09
	CauseImplicitlyDeregistered            uint8 = 0x0a
	CausePlmnNotAllowed                    uint8 = 0x0b
	CauseTrackingAreaNotAllowed            uint8 = 0x0c
	CauseRoamingNotAllowedInTa             uint8 = 0x0d
	CauseNoSuitableCellsInTa               uint8 = 0x0f
	CauseMacFailure                        uint8 = 0x14
	CauseSynchFailure                      uint8 = 0x15
	CauseCongestion                        uint8 = 0x16
	CauseUeSecurityCapabilitiesMismatch    uint8 = 0x17
	CauseSecurityModeRejectedUnspecified   uint8 = 0x18
	CauseNon5gAuthenticationUnacceptable   uint8 = 0x1a
	CauseNgKsiAlreadyInUse                 uint8 = 0x47
	CauseInvalidMandatoryInformation       uint8 = 0x60
	CauseMessageTypeNonExistent            uint8 = 0x61
	CauseMessageTypeNotCompatibleWithState uint8 = 0x62
	CauseMessageNotCompatibleWithState     uint8 = 0x65
	CauseProtocolErrorUnspecified          uint8 = 0x6f
)
