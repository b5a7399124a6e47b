package main

import (
	"context"
	"net"
	"time"
)

// dataCollector pings buoy sensors and forwards data if received
func dataCollector(ctx context.Context, devices []source, data chan<- []byte, sigDone chan<- struct{}) {
	var buf = make([]byte, 512)

	// set up UDP socket
	// actually, this is only necessary if we want to send from a specific address/port
	laddr, err := net.ResolveUDPAddr("udp", "")
	if err != nil {
		log.Error().Err(err).Msg("")
		sigDone <- struct{}{}
		return
	}
	log.Debug().Msgf("source addr: %v", laddr)

	ticker := time.NewTicker(CHECKINTERVAL)
	defer ticker.Stop()
	for { // outer loop: repeatedly query data from devices unless context is cancelled
		select {
		case <-ctx.Done():
			log.Debug().Msg("data collector ctx: Done !")
			sigDone <- struct{}{}
			log.Debug().Msg("data collector closing")
			return
		case <-ticker.C:
			log.Debug().Msg("check devices...")
			for i, dev := range devices {
				log.Debug().Msgf("check %v", dev.name)
				if dev.lastContact.After(time.Now().Add(-INTERVAL + CHECKINTERVAL)) {
					// if last contact was within INTERVAL, we can just continue
					continue
				}
				if dev.UDPaddress == nil {
					continue // address did not resolve at startup
				}
				log.Debug().Msgf("query %v", dev.name)
				conn, err := net.DialUDP("udp", laddr, dev.UDPaddress)
				if err != nil {
					log.Error().Err(err).Msg("")
					continue // skip to next device if we cannot dial
				}

				err = conn.SetReadDeadline(time.Now().Add(time.Second))
				if err != nil {
					log.Error().Err(err).Msg("")
				}

				n, err := conn.Write([]byte("hello"))
				if err != nil {
					log.Error().Err(err).Msg("")
					conn.Close()
					continue // skip to next device if we cannot send
				}
				log.Debug().Msgf("wrote %v bytes to %v", n, dev.address)

				// now read
				n, err = conn.Read(buf)
				conn.Close()
				if err == nil {
					log.Debug().Msgf("received %v", string(buf[:n]))
					log.Debug().Msg("forwarding bytes...")
					// update lastContact
					devices[i].lastContact = time.Now()
					// forward a copy, buf is reused
					b := make([]byte, n)
					copy(b, buf[:n])
					select {
					case data <- b:
					case <-ctx.Done():
					}
					continue
				} else {
					log.Error().Err(err).Msg("")
				}
				// if we reach this point, conn.Read did not return anything
				log.Error().Msgf("no response from %v, %v bytes received", dev.name, n)
			}
		}
	}
}
