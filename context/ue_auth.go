// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"fmt"

	"github.com/omec-project/uesim/util"
	"github.com/omec-project/util/ueauth"
)

func ServingNetworkName(mcc, mnc string) string {
	if len(mnc) == 2 {
		mnc = "0" + mnc
	}
	return fmt.Sprintf("5G:mnc%s.mcc%s.3gppnetwork.org", mnc, mcc)
}

// RES* derivation function defined in TS 33.501 Annex A.4
func DerivateResStar(ck, ik []byte, snName string, rand, res []byte) ([]byte, error) {
	key := append(append([]byte{}, ck...), ik...)
	P0 := []byte(snName)
	P1 := rand
	P2 := res

	kdfVal, err := ueauth.GetKDFValue(key, ueauth.FC_FOR_RES_STAR_XRES_STAR_DERIVATION,
		P0, ueauth.KDFLen(P0), P1, ueauth.KDFLen(P1), P2, ueauth.KDFLen(P2))
	if err != nil {
		return nil, err
	}
	return kdfVal[len(kdfVal)/2:], nil
}

// Kausf derivation function defined in TS 33.501 Annex A.2
func DerivateKausf(ck, ik []byte, snName string, sqnXorAk []byte) ([]byte, error) {
	key := append(append([]byte{}, ck...), ik...)
	P0 := []byte(snName)
	P1 := sqnXorAk
	return ueauth.GetKDFValue(key, ueauth.FC_FOR_KAUSF_DERIVATION, P0, ueauth.KDFLen(P0), P1, ueauth.KDFLen(P1))
}

// Kseaf derivation function defined in TS 33.501 Annex A.6
func DerivateKseaf(kausf []byte, snName string) ([]byte, error) {
	P0 := []byte(snName)
	return ueauth.GetKDFValue(kausf, ueauth.FC_FOR_KSEAF_DERIVATION, P0, ueauth.KDFLen(P0))
}

// Kamf Derivation function defined in TS 33.501 Annex A.7
func DerivateKamf(kseaf []byte, supi string, abba []byte) ([]byte, error) {
	digits, err := util.SupiDigits(supi)
	if err != nil {
		return nil, err
	}
	P0 := []byte(digits)
	P1 := abba
	return ueauth.GetKDFValue(kseaf, ueauth.FC_FOR_KAMF_DERIVATION, P0, ueauth.KDFLen(P0), P1, ueauth.KDFLen(P1))
}
