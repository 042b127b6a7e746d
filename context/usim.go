// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"fmt"

	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/nas/security"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/util"
	"github.com/omec-project/util/milenage"
	"github.com/omec-project/util/ueauth"
)

type NasSecurityContext struct {
	Tsc          uint8
	NgKsi        uint8
	Kamf         []uint8
	KnasEnc      [16]uint8
	KnasInt      [16]uint8
	ULCount      security.Count
	DLCount      security.Count
	IntegrityAlg uint8
	CipheringAlg uint8
}

func NewNasSecurityContext(ngKsi uint8, kamf []uint8) *NasSecurityContext {
	return &NasSecurityContext{
		Tsc:          nasMessage.TypeOfSecurityContextFlagNative,
		NgKsi:        ngKsi,
		Kamf:         kamf,
		IntegrityAlg: security.AlgIntegrity128NIA0,
		CipheringAlg: security.AlgCiphering128NEA0,
	}
}

// IsProtected reports whether messages sent under this context get a
// security envelope.
func (c *NasSecurityContext) IsProtected() bool {
	return c.IntegrityAlg != security.AlgIntegrity128NIA0 || c.CipheringAlg != security.AlgCiphering128NEA0
}

// Algorithm key Derivation function defined in TS 33.501 Annex A.9
func (c *NasSecurityContext) DerivateAlgKey() error {
	P0 := []byte{security.NNASEncAlg}
	L0 := ueauth.KDFLen(P0)
	P1 := []byte{c.CipheringAlg}
	L1 := ueauth.KDFLen(P1)

	kenc, err := ueauth.GetKDFValue(c.Kamf, ueauth.FC_FOR_ALGORITHM_KEY_DERIVATION, P0, L0, P1, L1)
	if err != nil {
		return fmt.Errorf("derive knas enc: %w", err)
	}
	copy(c.KnasEnc[:], kenc[16:32])

	P0 = []byte{security.NNASIntAlg}
	L0 = ueauth.KDFLen(P0)
	P1 = []byte{c.IntegrityAlg}
	L1 = ueauth.KDFLen(P1)

	kint, err := ueauth.GetKDFValue(c.Kamf, ueauth.FC_FOR_ALGORITHM_KEY_DERIVATION, P0, L0, P1, L1)
	if err != nil {
		return fmt.Errorf("derive knas int: %w", err)
	}
	copy(c.KnasInt[:], kint[16:32])
	return nil
}

func (c *NasSecurityContext) wipe() {
	for i := range c.Kamf {
		c.Kamf[i] = 0
	}
	c.Kamf = nil
	c.KnasEnc = [16]uint8{}
	c.KnasInt = [16]uint8{}
	c.ULCount.Set(0, 0)
	c.DLCount.Set(0, 0)
}

// Usim holds the subscriber identity, long term keys and every NAS security
// context of the UE.
type Usim struct {
	Valid  bool
	Supi   string
	Imei   string
	Imeisv string

	K   []uint8
	Opc []uint8
	Amf []uint8
	Sqn []uint8

	CurrentNsCtx    *NasSecurityContext
	NonCurrentNsCtx *NasSecurityContext

	StoredSuci []uint8
	StoredGuti *nasType.GUTI5G
	UState     UState
}

func NewUsim(cfg *factory.UeConfig) (*Usim, error) {
	usim := &Usim{
		Supi:   cfg.Supi,
		Imei:   cfg.Imei,
		Imeisv: cfg.Imeisv,
		Sqn:    make([]uint8, 6),
		UState: U2NotUpdated,
	}
	if cfg.Supi == "" {
		// no SUPI: the UE is left in NO-SUPI
		return usim, nil
	}
	if _, err := util.SupiDigits(cfg.Supi); err != nil {
		return nil, err
	}

	var err error
	if usim.K, err = util.HexKey(cfg.Key, 16); err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	op, err := util.HexKey(cfg.Op, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid op/opc: %w", err)
	}
	switch cfg.OpType {
	case factory.OpTypeOp:
		if usim.Opc, err = milenage.GenerateOPC(usim.K, op); err != nil {
			return nil, fmt.Errorf("generate opc: %w", err)
		}
	case factory.OpTypeOpc, "":
		usim.Opc = op
	default:
		return nil, fmt.Errorf("unknown op type [%s]", cfg.OpType)
	}
	if usim.Amf, err = util.HexKey(cfg.Amf, 2); err != nil {
		return nil, fmt.Errorf("invalid amf: %w", err)
	}
	usim.Valid = true
	return usim, nil
}

func (u *Usim) HasCurrentSecurityContext() bool {
	return u.CurrentNsCtx != nil
}

// DeleteSecurityContexts wipes and drops both NAS security contexts and
// reports whether any was present.
func (u *Usim) DeleteSecurityContexts() bool {
	deleted := false
	if u.CurrentNsCtx != nil {
		u.CurrentNsCtx.wipe()
		u.CurrentNsCtx = nil
		deleted = true
	}
	if u.NonCurrentNsCtx != nil {
		u.NonCurrentNsCtx.wipe()
		u.NonCurrentNsCtx = nil
		deleted = true
	}
	return deleted
}

// PromoteNonCurrent takes the non-current context into use after a
// successful security mode command.
func (u *Usim) PromoteNonCurrent() {
	if u.NonCurrentNsCtx == nil {
		return
	}
	if u.CurrentNsCtx != nil {
		u.CurrentNsCtx.wipe()
	}
	u.CurrentNsCtx = u.NonCurrentNsCtx
	u.NonCurrentNsCtx = nil
}
