// Package qrcode renders QR code images for the two-factor enrollment flow,
// either as raw PNG bytes or as a data-URI string the dashboard can embed
// directly into an <img> tag.
//
// It is a thin wrapper around github.com/skip2/go-qrcode that adds input
// validation and a sensible default size. Errors are package-level variables
// comparable with errors.Is.
package qrcode
