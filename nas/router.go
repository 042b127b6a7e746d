// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package nas

import (
	"errors"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/security"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gmm"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/nasmsgtypes"
	"github.com/omec-project/uesim/nas/nas_security"
	"github.com/sirupsen/logrus"
)

// MmLayer is the part of the MM sublayer the router dispatches to.
type MmLayer interface {
	Context() *context.UeContext
	ReceiveMmMessage(msg *nas.Message)
	SendMmStatus(cause uint8)
}

type SmLayer interface {
	ReceiveSmMessage(msg *nas.Message)
}

// Router opens the security envelope of downlink NAS PDUs and hands the
// plain messages to MM or SM.
type Router struct {
	mm  MmLayer
	sm  SmLayer
	log *logrus.Entry
}

func NewRouter(mm MmLayer, sm SmLayer, log *logrus.Entry) *Router {
	return &Router{mm: mm, sm: sm, log: log}
}

func (r *Router) ReceiveNasMessage(pdu []byte) {
	r.receive(DecodeEnvelope(pdu), false)
}

func (r *Router) receive(env Envelope, nested bool) {
	switch env.Kind {
	case EnvelopeSm:
		r.log.Errorln("SM message received without MM container")
		r.reply(gmm.CauseMessageTypeNotCompatibleWithState)
		return
	case EnvelopeInvalid:
		r.log.Errorf("Dropping undecodable NAS PDU: %+v", env.Err)
		metrics.IncrementNasMsgStats("Invalid", metrics.DirectionIn, "dropped")
		return
	}

	current := r.mm.Context().Usim.CurrentNsCtx

	switch env.Kind {
	case EnvelopePlainMm:
		if current != nil {
			r.log.Warnln("Dropping unprotected NAS message, a security context is in use")
			metrics.IncrementNasMsgStats(gmmName(env.Message), metrics.DirectionIn, "dropped")
			return
		}
		r.dispatchMm(env.Message)
	case EnvelopeNewContextMm:
		if env.SecurityHeaderType != nas.SecurityHeaderTypeIntegrityProtectedWithNew5gNasSecurityContext {
			r.log.Errorln("Ciphered NAS message received for a new security context")
			r.reply(gmm.CauseProtocolErrorUnspecified)
			return
		}
		if env.Err != nil || env.Message.GmmMessage == nil ||
			env.Message.GmmHeader.GetMessageType() != nas.MsgTypeSecurityModeCommand {
			r.log.Errorln("New security context is only valid for a Security Mode Command")
			r.reply(gmm.CauseProtocolErrorUnspecified)
			return
		}
		r.dispatchMm(env.Message)
	case EnvelopeSecuredMm:
		if env.Err != nil {
			r.log.Errorf("Dropping secured NAS PDU: %+v", env.Err)
			return
		}
		if current == nil {
			r.log.Warnln("Secured NAS message received without a current security context")
			r.reply(gmm.CauseMessageNotCompatibleWithState)
			return
		}
		plain, err := nas_security.Decrypt(current, env.Pdu, security.DirectionDownlink)
		if errors.Is(err, nas_security.ErrMacMismatch) {
			r.reply(gmm.CauseMacFailure)
			return
		} else if err != nil {
			r.log.Errorf("NAS decrypt error: %+v", err)
			return
		}
		r.receiveInner(DecodeEnvelope(plain), nested)
	}
}

func (r *Router) receiveInner(inner Envelope, nested bool) {
	switch inner.Kind {
	case EnvelopePlainMm:
		r.dispatchMm(inner.Message)
	case EnvelopeSecuredMm, EnvelopeNewContextMm:
		if nested {
			r.log.Errorln("Dropping NAS message with more than one level of nested protection")
			return
		}
		r.log.Warnln("Nested security protected NAS message received")
		r.receive(inner, true)
	case EnvelopeSm:
		if inner.Err != nil {
			r.log.Errorf("SM message decode error: %+v", inner.Err)
			r.reply(gmm.CauseMessageTypeNonExistent)
			return
		}
		metrics.IncrementNasMsgStats(gsmName(inner.Message), metrics.DirectionIn, "ok")
		r.sm.ReceiveSmMessage(inner.Message)
	default:
		r.log.Errorf("Decrypted NAS message is not usable: %+v", inner.Err)
		r.reply(gmm.CauseMessageTypeNonExistent)
	}
}

func (r *Router) dispatchMm(msg *nas.Message) {
	if msg == nil || msg.GmmMessage == nil {
		r.log.Errorln("Gmm Message is nil")
		return
	}
	metrics.IncrementNasMsgStats(gmmName(msg), metrics.DirectionIn, "ok")
	r.mm.ReceiveMmMessage(msg)
}

func (r *Router) reply(cause uint8) {
	metrics.IncrementNasMsgStats("Status5GMM", metrics.DirectionOut, "rejected")
	r.mm.SendMmStatus(cause)
}

func gmmName(msg *nas.Message) string {
	if msg == nil || msg.GmmMessage == nil {
		return "Unknown"
	}
	return nasmsgtypes.GmmName(msg.GmmHeader.GetMessageType())
}

func gsmName(msg *nas.Message) string {
	if msg == nil || msg.GsmMessage == nil {
		return "Unknown"
	}
	return nasmsgtypes.GsmName(msg.GsmHeader.GetMessageType())
}
