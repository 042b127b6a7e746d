// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package util

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
)

const ImsiPrefix = "imsi-"

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SupiDigits strips the "imsi-" prefix.
func SupiDigits(supi string) (string, error) {
	if !strings.HasPrefix(supi, ImsiPrefix) {
		return "", fmt.Errorf("unsupported supi format [%s]", supi)
	}
	digits := strings.TrimPrefix(supi, ImsiPrefix)
	if !isDigits(digits) || len(digits) < 6 || len(digits) > 15 {
		return "", fmt.Errorf("invalid imsi [%s]", digits)
	}
	return digits, nil
}

func digit(c byte) uint8 {
	return c - '0'
}

// EncodePlmn packs MCC/MNC into the three octet PLMN layout used by NAS and NGAP.
func EncodePlmn(mcc, mnc string) ([3]uint8, error) {
	var plmn [3]uint8
	if len(mcc) != 3 || !isDigits(mcc) {
		return plmn, fmt.Errorf("invalid mcc [%s]", mcc)
	}
	if (len(mnc) != 2 && len(mnc) != 3) || !isDigits(mnc) {
		return plmn, fmt.Errorf("invalid mnc [%s]", mnc)
	}
	mnc3 := uint8(0x0f)
	if len(mnc) == 3 {
		mnc3 = digit(mnc[2])
	}
	plmn[0] = digit(mcc[1])<<4 | digit(mcc[0])
	plmn[1] = mnc3<<4 | digit(mcc[2])
	plmn[2] = digit(mnc[1])<<4 | digit(mnc[0])
	return plmn, nil
}

// packBcd packs digits two per octet, low nibble first, padding with 0xf.
func packBcd(digits string) []uint8 {
	out := make([]uint8, 0, (len(digits)+1)/2)
	for i := 0; i < len(digits); i += 2 {
		lo := digit(digits[i])
		hi := uint8(0x0f)
		if i+1 < len(digits) {
			hi = digit(digits[i+1])
		}
		out = append(out, hi<<4|lo)
	}
	return out
}

// EncodeSuci builds the SUCI mobile identity contents for an IMSI based SUPI
// using the null protection scheme.
func EncodeSuci(supi, mcc, mnc, routingIndicator string) ([]uint8, error) {
	imsi, err := SupiDigits(supi)
	if err != nil {
		return nil, err
	}
	plmn, err := EncodePlmn(mcc, mnc)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(imsi, mcc+mnc) {
		return nil, fmt.Errorf("imsi [%s] does not belong to plmn %s%s", imsi, mcc, mnc)
	}
	if len(routingIndicator) == 0 || len(routingIndicator) > 4 || !isDigits(routingIndicator) {
		return nil, fmt.Errorf("invalid routing indicator [%s]", routingIndicator)
	}
	ri := routingIndicator + strings.Repeat("f", 4-len(routingIndicator))
	nibble := func(c byte) uint8 {
		if c == 'f' {
			return 0x0f
		}
		return digit(c)
	}

	buf := []uint8{nasMessage.MobileIdentity5GSTypeSuci}
	buf = append(buf, plmn[:]...)
	buf = append(buf, nibble(ri[1])<<4|nibble(ri[0]), nibble(ri[3])<<4|nibble(ri[2]))
	// protection scheme id and home network public key id
	buf = append(buf, 0x00, 0x00)
	buf = append(buf, packBcd(imsi[len(mcc)+len(mnc):])...)
	return buf, nil
}

// EncodeDigitIdentity encodes IMEI / IMEISV style identities where the first
// digit shares an octet with the odd/even flag and the type of identity.
func EncodeDigitIdentity(digits string, identityType uint8) ([]uint8, error) {
	if !isDigits(digits) {
		return nil, fmt.Errorf("invalid identity digits [%s]", digits)
	}
	oddEven := uint8(0)
	if len(digits)%2 == 1 {
		oddEven = 1
	}
	buf := []uint8{digit(digits[0])<<4 | oddEven<<3 | identityType&0x07}
	buf = append(buf, packBcd(digits[1:])...)
	return buf, nil
}

// HexKey decodes a hex key of the expected length in bytes.
func HexKey(s string, size int) ([]uint8, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("key length is %d, expected %d", len(b), size)
	}
	return b, nil
}

func GutiToString(guti *nasType.GUTI5G) string {
	if guti == nil {
		return ""
	}
	mnc := fmt.Sprintf("%d%d", guti.GetMNCDigit1(), guti.GetMNCDigit2())
	if mnc3 := guti.GetMNCDigit3(); mnc3 != 0x0f {
		mnc += fmt.Sprintf("%d", mnc3)
	}
	return fmt.Sprintf("%d%d%d%s%02x%03x%02x%s", guti.GetMCCDigit1(), guti.GetMCCDigit2(), guti.GetMCCDigit3(),
		mnc, guti.GetAMFRegionID(), guti.GetAMFSetID(), guti.GetAMFPointer(), hex.EncodeToString(guti.Octet[7:11]))
}
