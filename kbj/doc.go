// Package kbj defines the KBJ binary instruction format: a 3-byte magic
// ("NCO"), a version byte, and a forward-only stream of variable-length
// instruction records.
//
// The format is designed for:
//   - Compact representation (one opcode byte, single-byte operands)
//   - Tolerant decoding (a truncated record ends the stream, it is not an error)
//   - A closed instruction set (the Instruction interface cannot be
//     implemented outside this package)
//
// # Records
//
// Every record is an opcode byte followed by fixed-width operands, except
// CreateUI, whose 3-byte header (element type, element id, entry count) is
// followed by property entries. An entry with id PropText carries a length
// byte and that many bytes of UTF-8 text; any other id carries one numeric
// byte.
//
// # Absorbed conditions
//
// Decode fails only on a bad header. Truncated records, undecodable text,
// and unknown opcodes are recorded in Program.Warnings and decoding
// continues (or stops, for truncation) with a successful result.
package kbj
