// Package comments recovers leading documentation comments from the source
// code info of a descriptor set.
//
// Each source location is addressed by a path of descriptor.proto field
// numbers and indexes, e.g. [4, 0, 2, 1] is "message_type[0].field[1]".
// PathToSymbol replays that path against a fixed transition table and
// returns the symbol of the addressed declaration. Comments on file options
// and extension ranges belong to no symbol and are dropped.
package comments
