// Package signature renders messages and enums as interface-like
// declarations of their JSON form.
//
//	// An item.
//	interface Item {
//	  id: string;  // String decimal
//	  labels: {[key: string]: string};
//	  created: string;  // RFC 3339 timestamp
//	}
//
// 64-bit integers render as strings, bytes as base64 strings, maps as
// key/value objects, and enums as string-valued enums.
package signature
