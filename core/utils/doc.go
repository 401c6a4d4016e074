// Package utils provides small type conversion helpers.
//
// Database rows arrive as loosely typed values (int64, []byte, strings)
// depending on driver and column type; these helpers normalize them without
// sprinkling type switches through feature code.
package utils
