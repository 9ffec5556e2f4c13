// Package mqlite implements a lightweight MQTT v5.0 message broker.
//
// Clients connect over plain TCP, announce themselves with CONNECT,
// register exact-match topic interests with SUBSCRIBE/UNSUBSCRIBE,
// inject data with PUBLISH and keep the session alive with PINGREQ.
// The broker fans messages out to matching subscribers in subscription
// order, remembers RETAIN messages per topic, and acknowledges at
// QoS 0 and 1.
//
// # Packets
//
// The wire codec covers CONNECT, CONNACK, PUBLISH, PUBACK, SUBSCRIBE,
// SUBACK, UNSUBSCRIBE, UNSUBACK, PINGREQ, PINGRESP and DISCONNECT.
// Use ReadPacket and WritePacket against a connection, or ParsePacket
// and EncodePacket against byte buffers:
//
//	pkt, n, err := mqlite.ReadPacket(conn, maxPacketSize)
//	n, err = mqlite.WritePacket(conn, pkt, maxPacketSize)
//
// Property blocks are carried opaquely: inbound blocks are preserved
// byte-for-byte, packets the broker originates have empty blocks.
//
// # Broker
//
//	srv, err := mqlite.NewServer(":1883",
//	    mqlite.WithLogger(mqlite.NewStdLogger(nil, mqlite.LogLevelInfo)),
//	    mqlite.WithMetrics(mqlite.NewPrometheusMetrics()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.ListenAndServe()
//	defer srv.Close()
//
// All broker state lives on a single event-loop goroutine; per-client
// packet order and topic fan-out order are deterministic.
//
// Out of scope: QoS 2 flows, persistent sessions, wildcard filters,
// shared subscriptions, Will delivery, authentication, TLS, bridging.
package mqlite
