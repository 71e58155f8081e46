// Package logx configures corewatch's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional webhook sink (min-level + rate limiting) so operators see
//     WARN+ records on the admin channel without a log shipper
package logx
