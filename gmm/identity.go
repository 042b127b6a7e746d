// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/util"
)

var noIdentity = []uint8{message.MobileIdentityNoIdentity}

// getOrGenerateSuci reuses the SUCI while T3519 runs, as the network may
// still be resolving it.
func (mm *NasMm) getOrGenerateSuci() []uint8 {
	usim := mm.ue.Usim
	if mm.ue.Timers.T3519.IsRunning() && usim.StoredSuci != nil {
		return usim.StoredSuci
	}
	if !usim.Valid || usim.Supi == "" {
		return nil
	}

	suci, err := util.EncodeSuci(usim.Supi, mm.ue.Config.Mcc, mm.ue.Config.Mnc, mm.ue.Config.GetRoutingIndicator())
	if err != nil {
		mm.log.Errorf("SUCI generation error: %+v", err)
		return nil
	}
	usim.StoredSuci = suci
	mm.ue.Timers.T3519.Start(mm.clock())
	return suci
}

func mobileIdentity(contents []uint8) nasType.MobileIdentity5GS {
	return nasType.MobileIdentity5GS{
		Len:    uint16(len(contents)),
		Buffer: contents,
	}
}

// getOrGeneratePreferredId picks the identity for a registration or
// de-registration request: 5G-GUTI, then SUCI, then IMEI, then IMEISV.
func (mm *NasMm) getOrGeneratePreferredId() nasType.MobileIdentity5GS {
	if guti := mm.ue.Usim.StoredGuti; guti != nil {
		return mobileIdentity(append([]uint8{}, guti.Octet[:]...))
	}
	if suci := mm.getOrGenerateSuci(); suci != nil {
		return mobileIdentity(suci)
	}
	if imei := mm.ue.Config.Imei; imei != "" {
		if b, err := util.EncodeDigitIdentity(imei, nasMessage.MobileIdentity5GSTypeImei); err == nil {
			return mobileIdentity(b)
		}
		mm.log.Warnf("Invalid IMEI [%s]", imei)
	}
	if imeisv := mm.ue.Config.Imeisv; imeisv != "" {
		if b, err := util.EncodeDigitIdentity(imeisv, nasMessage.MobileIdentity5GSTypeImeisv); err == nil {
			return mobileIdentity(b)
		}
		mm.log.Warnf("Invalid IMEISV [%s]", imeisv)
	}
	return mobileIdentity(noIdentity)
}

func (mm *NasMm) receiveIdentityRequest(msg *nasMessage.IdentityRequest) {
	identityType := msg.SpareHalfOctetAndIdentityType.GetTypeOfIdentity()
	mm.log.Debugf("Identity Request received for type [%d]", identityType)

	var identity []uint8
	switch identityType {
	case nasMessage.MobileIdentity5GSTypeSuci:
		identity = mm.getOrGenerateSuci()
	case nasMessage.MobileIdentity5GSType5gGuti:
		if guti := mm.ue.Usim.StoredGuti; guti != nil {
			identity = append([]uint8{}, guti.Octet[:]...)
		}
	case nasMessage.MobileIdentity5GSTypeImei:
		if mm.ue.Config.Imei != "" {
			identity, _ = util.EncodeDigitIdentity(mm.ue.Config.Imei, nasMessage.MobileIdentity5GSTypeImei)
		}
	case nasMessage.MobileIdentity5GSTypeImeisv:
		if mm.ue.Config.Imeisv != "" {
			identity, _ = util.EncodeDigitIdentity(mm.ue.Config.Imeisv, nasMessage.MobileIdentity5GSTypeImeisv)
		}
	default:
		mm.log.Warnf("Requested identity type [%d] is not supported", identityType)
	}
	if identity == nil {
		mm.log.Warnf("Requested identity [%d] is not available, sending no identity", identityType)
		identity = noIdentity
	}
	mm.SendNasMessage(message.BuildIdentityResponse(identity))
}
