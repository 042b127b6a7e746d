// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package service

import (
	ctxt "context"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"git.cs.nctu.edu.tw/calee/sctp"
	"github.com/omec-project/ngap"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/sirupsen/logrus"
)

const (
	readBufSize   uint32 = 131072
	retryInterval        = 5 * time.Second
)

// Run keeps an SCTP association to one AMF. Association state and received
// PDUs are pushed to the NGAP task; a lost association is dialed again after
// retryInterval until ctx is done.
func Run(ctx ctxt.Context, localIp string, amfCfg factory.AmfConfig, amfCtxId int,
	inbox chan<- taskmsgtypes.NgapMessage,
) {
	log := logger.NgapLog.WithField(logger.FieldAmfAddr, fmt.Sprintf("%s:%d", amfCfg.Address, amfCfg.Port))
	for {
		conn, err := dial(localIp, amfCfg, log)
		if err != nil {
			log.Errorf("SCTP connect error: %+v", err)
		} else {
			if !deliver(ctx, inbox, taskmsgtypes.SctpAssociationUp{AmfCtxId: amfCtxId, Conn: conn}) {
				closeConn(conn, log)
				return
			}
			handleConnection(ctx, conn, amfCtxId, inbox, log)
			deliver(ctx, inbox, taskmsgtypes.SctpAssociationDown{AmfCtxId: amfCtxId})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryInterval):
		}
	}
}

func resolve(address string, port int) (*sctp.SCTPAddr, error) {
	ips := []net.IPAddr{}
	if address != "" {
		netAddr, err := net.ResolveIPAddr("ip", address)
		if err != nil {
			return nil, fmt.Errorf("resolve address '%s': %w", address, err)
		}
		ips = append(ips, *netAddr)
	}
	return &sctp.SCTPAddr{IPAddrs: ips, Port: port}, nil
}

func dial(localIp string, amfCfg factory.AmfConfig, log *logrus.Entry) (*sctp.SCTPConn, error) {
	raddr, err := resolve(amfCfg.Address, amfCfg.Port)
	if err != nil {
		return nil, err
	}
	var laddr *sctp.SCTPAddr
	if localIp != "" {
		if laddr, err = resolve(localIp, 0); err != nil {
			return nil, err
		}
	}

	conn, err := sctp.DialSCTP("sctp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial sctp: %w", err)
	}

	info, err := conn.GetDefaultSentParam()
	if err != nil {
		closeConn(conn, log)
		return nil, fmt.Errorf("get default sent param: %w", err)
	}
	log.Debugf("get default sent param[value: %+v]", info)

	info.PPID = ngap.PPID
	if err := conn.SetDefaultSentParam(info); err != nil {
		closeConn(conn, log)
		return nil, fmt.Errorf("set default sent param: %w", err)
	}

	events := sctp.SCTP_EVENT_DATA_IO | sctp.SCTP_EVENT_SHUTDOWN | sctp.SCTP_EVENT_ASSOCIATION
	if err := conn.SubscribeEvents(events); err != nil {
		closeConn(conn, log)
		return nil, fmt.Errorf("subscribe events: %w", err)
	}

	if err := conn.SetReadBuffer(int(readBufSize)); err != nil {
		closeConn(conn, log)
		return nil, fmt.Errorf("set read buffer: %w", err)
	}

	log.Infof("SCTP connected to %s", conn.RemoteAddr())
	return conn, nil
}

func closeConn(conn *sctp.SCTPConn, log *logrus.Entry) {
	if err := conn.Close(); err != nil && err != syscall.EBADF {
		log.Errorf("close connection error: %+v", err)
	}
}

func handleConnection(ctx ctxt.Context, conn *sctp.SCTPConn, amfCtxId int,
	inbox chan<- taskmsgtypes.NgapMessage, log *logrus.Entry,
) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			closeConn(conn, log)
		case <-stop:
		}
	}()
	defer closeConn(conn, log)

	for {
		buf := make([]byte, readBufSize)

		n, info, notification, err := conn.SCTPRead(buf)
		if err != nil {
			switch err {
			case io.EOF, io.ErrUnexpectedEOF:
				log.Debugln("read EOF from AMF")
				return
			case syscall.EAGAIN:
				log.Debugln("SCTP read timeout")
				continue
			case syscall.EINTR:
				log.Debugf("SCTPRead: %+v", err)
				continue
			default:
				if ctx.Err() == nil {
					log.Errorf("handle connection[addr: %+v] error: %+v", conn.RemoteAddr(), err)
				}
				return
			}
		}

		if notification != nil {
			if handleNotification(notification, log) {
				return
			}
			continue
		}

		if info == nil || info.PPID != ngap.PPID {
			log.Warnln("received SCTP PPID != 60, discard this packet")
			continue
		}

		log.Debugf("read %d bytes", n)
		log.Tracef("packet content: %+v", hex.Dump(buf[:n]))

		if !deliver(ctx, inbox, taskmsgtypes.SctpData{AmfCtxId: amfCtxId, Data: buf[:n]}) {
			return
		}
	}
}

// deliver hands msg to the NGAP task; it gives up once ctx is done.
func deliver(ctx ctxt.Context, inbox chan<- taskmsgtypes.NgapMessage, msg taskmsgtypes.NgapMessage) bool {
	select {
	case inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// handleNotification reports whether the association is gone.
func handleNotification(notification sctp.Notification, log *logrus.Entry) bool {
	switch notification.Type() {
	case sctp.SCTP_ASSOC_CHANGE:
		event := notification.(*sctp.SCTPAssocChangeEvent)
		switch event.State() {
		case sctp.SCTP_COMM_LOST:
			log.Infoln("SCTP state is SCTP_COMM_LOST, close the connection")
			return true
		case sctp.SCTP_SHUTDOWN_COMP:
			log.Infoln("SCTP state is SCTP_SHUTDOWN_COMP, close the connection")
			return true
		default:
			log.Debugf("SCTP state[%+v] is not handled", event.State())
		}
	case sctp.SCTP_SHUTDOWN_EVENT:
		log.Infoln("SCTP_SHUTDOWN_EVENT notification, close the connection")
		return true
	default:
		log.Warnf("Non handled notification type: 0x%x", notification.Type())
	}
	return false
}
