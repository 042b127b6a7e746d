// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package nas

import (
	"errors"
	"fmt"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
)

// secured header: EPD, SHT, MAC (4 octets), sequence number
const securedHeaderLen = 7

type EnvelopeKind uint8

const (
	EnvelopeInvalid EnvelopeKind = iota
	// EnvelopePlainMm is an unprotected 5GMM message, already decoded.
	EnvelopePlainMm
	// EnvelopeSecuredMm needs the current security context to be opened.
	EnvelopeSecuredMm
	// EnvelopeNewContextMm carries a security header type that establishes
	// a new 5G NAS security context.
	EnvelopeNewContextMm
	// EnvelopeSm is a 5GSM message outside of any MM container.
	EnvelopeSm
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopePlainMm:
		return "PlainMm"
	case EnvelopeSecuredMm:
		return "SecuredMm"
	case EnvelopeNewContextMm:
		return "NewContextMm"
	case EnvelopeSm:
		return "Sm"
	default:
		return "Invalid"
	}
}

var (
	errShortPdu   = errors.New("nas pdu too short")
	errUnknownEpd = errors.New("unknown extended protocol discriminator")
)

// Envelope is an inbound NAS PDU classified once by its extended protocol
// discriminator and security header type.
type Envelope struct {
	Kind               EnvelopeKind
	SecurityHeaderType uint8
	// Message is set for EnvelopePlainMm and EnvelopeSm, and for an
	// integrity protected EnvelopeNewContextMm whose inner message decoded.
	Message *nas.Message
	Pdu     []byte
	Err     error
}

// DecodeEnvelope classifies pdu. Decode problems are kept in Err rather than
// returned, so that every PDU maps to exactly one kind.
func DecodeEnvelope(pdu []byte) Envelope {
	env := Envelope{Pdu: pdu}
	if len(pdu) < 3 {
		env.Err = errShortPdu
		return env
	}

	switch pdu[0] {
	case nasMessage.Epd5GSSessionManagementMessage:
		env.Kind = EnvelopeSm
		env.Message, env.Err = decodePlain(pdu)
		return env
	case nasMessage.Epd5GSMobilityManagementMessage:
	default:
		env.Err = fmt.Errorf("%w: 0x%02x", errUnknownEpd, pdu[0])
		return env
	}

	env.SecurityHeaderType = nas.GetSecurityHeaderType(pdu) & 0x0f
	switch env.SecurityHeaderType {
	case nas.SecurityHeaderTypePlainNas:
		msg, err := decodePlain(pdu)
		if err != nil {
			env.Err = err
			return env
		}
		env.Kind = EnvelopePlainMm
		env.Message = msg
	case nas.SecurityHeaderTypeIntegrityProtectedWithNew5gNasSecurityContext:
		env.Kind = EnvelopeNewContextMm
		if len(pdu) <= securedHeaderLen {
			env.Err = errShortPdu
			return env
		}
		inner := pdu[securedHeaderLen:]
		if inner[0] != nasMessage.Epd5GSMobilityManagementMessage || len(inner) < 3 ||
			nas.GetSecurityHeaderType(inner)&0x0f != nas.SecurityHeaderTypePlainNas {
			env.Err = errors.New("new security context does not wrap a plain MM message")
			return env
		}
		env.Message, env.Err = decodePlain(inner)
	case nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext:
		env.Kind = EnvelopeNewContextMm
	case nas.SecurityHeaderTypeIntegrityProtected,
		nas.SecurityHeaderTypeIntegrityProtectedAndCiphered:
		env.Kind = EnvelopeSecuredMm
		if len(pdu) <= securedHeaderLen {
			env.Err = errShortPdu
		}
	default:
		env.Err = fmt.Errorf("unknown security header type 0x%x", env.SecurityHeaderType)
	}
	return env
}

func decodePlain(pdu []byte) (*nas.Message, error) {
	b := append([]byte{}, pdu...)
	msg := new(nas.Message)
	if err := msg.PlainNasDecode(&b); err != nil {
		return nil, fmt.Errorf("plain nas decode: %w", err)
	}
	return msg, nil
}
