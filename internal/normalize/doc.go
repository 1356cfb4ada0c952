// Package normalize converts the date, time, and text encodings found on
// upstream pages into canonical forms: YYYY-MM-DD dates, zero-padded 24-hour
// HH:MM times, and whitespace-collapsed NFC text without markup.
//
// Unparsable dates become nil and unparsable times are passed through, so a
// record is never dropped because of an odd value.
package normalize
