// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package romp implements the endpoint, transport, and framed-session
// layers of the ROMP distributed-object RPC protocol.
//
// A client holds a Proxy (see code.hybscloud.com/romp/client) bound to an
// object id that lives in a server process (see
// code.hybscloud.com/romp/server). Proxies forward method invocations as
// framed messages over a Session, which in turn owns one connected
// Stream obtained from a parsed Endpoint.
//
// Wire format: every frame is an 8-byte header (magic, payload length,
// message type, object id — all big-endian uint16) followed by a
// codec-encoded payload. See wire.go for the exact layout and the
// message-type taxonomy, and code.hybscloud.com/romp/codec for the value
// encoding.
package romp
