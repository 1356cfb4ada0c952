// Package extract turns fetched documents into candidate records.
//
// Every source shape is a Strategy: an ordered list of passes, each a pure function
// from a RawDocument to candidates. Structural passes read markup with goquery;
// textual passes scan the raw text when the structure is missing. The first pass
// that yields candidates wins.
package extract
