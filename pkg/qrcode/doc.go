// Package qrcode renders QR codes as PNG images or data URIs with medium
// error correction.
//
//	png, err := qrcode.Generate("INV-2025-0042", 256)
//	uri, err := qrcode.GenerateBase64Image("INV-2025-0042", 128) // data:image/png;base64,...
//
// Sizes are clamped to [MinSize, MaxSize]; zero selects DefaultSize.
package qrcode
