// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package nas_security

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/security"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/logger"
)

// secured header: EPD, SHT, MAC (4 octets), sequence number
const securedHeaderLen = 7

var (
	ErrMacMismatch   = errors.New("nas mac verification failed")
	ErrShortMessage  = errors.New("secured nas message too short")
	ErrNoSecurityCtx = errors.New("nas security context is nil")
)

func count(ctx *context.NasSecurityContext, direction uint8) *security.Count {
	if direction == security.DirectionUplink {
		return &ctx.ULCount
	}
	return &ctx.DLCount
}

func isCiphered(securityHeaderType uint8) bool {
	return securityHeaderType == nas.SecurityHeaderTypeIntegrityProtectedAndCiphered ||
		securityHeaderType == nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext
}

// Encrypt wraps a plain NAS PDU into a security protected message using the
// count of the given direction, then advances that count.
func Encrypt(ctx *context.NasSecurityContext, plain []byte, securityHeaderType, direction uint8) ([]byte, error) {
	if ctx == nil {
		return nil, ErrNoSecurityCtx
	}
	switch securityHeaderType {
	case nas.SecurityHeaderTypeIntegrityProtected,
		nas.SecurityHeaderTypeIntegrityProtectedAndCiphered,
		nas.SecurityHeaderTypeIntegrityProtectedWithNew5gNasSecurityContext,
		nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext:
	default:
		return nil, fmt.Errorf("wrong security header type: 0x%0x", securityHeaderType)
	}
	if len(plain) == 0 {
		return nil, fmt.Errorf("nas payload is empty")
	}

	cnt := count(ctx, direction)
	payload := append([]byte{}, plain...)
	if isCiphered(securityHeaderType) {
		if err := security.NASEncrypt(ctx.CipheringAlg, ctx.KnasEnc, cnt.Get(), security.Bearer3GPP,
			direction, payload); err != nil {
			return nil, fmt.Errorf("encrypt error: %w", err)
		}
	}

	payload = append([]byte{cnt.SQN()}, payload...)
	mac32, err := security.NASMacCalculate(ctx.IntegrityAlg, ctx.KnasInt, cnt.Get(), security.Bearer3GPP,
		direction, payload)
	if err != nil {
		return nil, fmt.Errorf("mac calculate error: %w", err)
	}
	logger.NasLog.Tracef("mac32: 0x%08x", mac32)

	out := make([]byte, 0, len(payload)+6)
	out = append(out, nasMessage.Epd5GSMobilityManagementMessage, securityHeaderType)
	out = append(out, mac32...)
	out = append(out, payload...)
	cnt.AddOne()
	return out, nil
}

// Decrypt verifies the MAC of a security protected NAS message and returns
// the inner plain NAS PDU. On any failure the count is left untouched.
func Decrypt(ctx *context.NasSecurityContext, secured []byte, direction uint8) ([]byte, error) {
	if ctx == nil {
		return nil, ErrNoSecurityCtx
	}
	if len(secured) <= securedHeaderLen {
		return nil, ErrShortMessage
	}
	securityHeaderType := nas.GetSecurityHeaderType(secured) & 0x0f
	receivedMac32 := secured[2:6]
	sequenceNumber := secured[6]

	cnt := count(ctx, direction)
	saved := cnt.Get()
	if cnt.SQN() > sequenceNumber {
		cnt.SetOverflow(cnt.Overflow() + 1)
	}
	cnt.SetSQN(sequenceNumber)

	mac32, err := security.NASMacCalculate(ctx.IntegrityAlg, ctx.KnasInt, cnt.Get(), security.Bearer3GPP,
		direction, secured[6:])
	if err != nil {
		restore(cnt, saved)
		return nil, fmt.Errorf("mac calculate error: %w", err)
	}
	if !bytes.Equal(mac32, receivedMac32) {
		logger.NasLog.Warnf("NAS MAC verification failed(received: 0x%08x, expected: 0x%08x)", receivedMac32, mac32)
		restore(cnt, saved)
		return nil, ErrMacMismatch
	}

	payload := append([]byte{}, secured[securedHeaderLen:]...)
	if isCiphered(securityHeaderType) {
		if err := security.NASEncrypt(ctx.CipheringAlg, ctx.KnasEnc, cnt.Get(), security.Bearer3GPP,
			direction, payload); err != nil {
			restore(cnt, saved)
			return nil, fmt.Errorf("decrypt error: %w", err)
		}
	}
	logger.NasLog.Tracef("decrypted payload:\n%+v", hex.Dump(payload))
	return payload, nil
}

func restore(cnt *security.Count, value uint32) {
	cnt.Set(uint16(value>>8), uint8(value))
}

// Encode produces the uplink PDU for msg. Without a context, or with the
// null algorithm pair, the message goes out unprotected.
func Encode(ctx *context.NasSecurityContext, msg *nas.Message, newContext bool) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("nas message is empty")
	}
	plain, err := msg.PlainNasEncode()
	if err != nil {
		return nil, fmt.Errorf("plain nas encode error: %w", err)
	}
	if ctx == nil || !ctx.IsProtected() {
		return plain, nil
	}

	securityHeaderType := nas.SecurityHeaderTypeIntegrityProtectedAndCiphered
	if newContext {
		securityHeaderType = nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext
	}
	return Encrypt(ctx, plain, securityHeaderType, security.DirectionUplink)
}
