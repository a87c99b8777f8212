// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds dirload's CBOR configuration, used for the run
// summary files written by "dirload run --summary-file".
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same summary always produces identical bytes, so summary files can be
// compared with cmp. Timestamps are RFC 3339 text and types implementing
// encoding.TextMarshaler encode as text strings.
//
//	data, err := codec.Marshal(summary)
//	err = codec.Unmarshal(data, &summary)
//
// Types serialized only as CBOR carry `cbor` struct tags.
package codec
