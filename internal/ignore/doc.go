// Package ignore implements the per-workspace .pawnignore list, which
// keeps matching files out of the symbol table.
//
//	gamemodes/old/
//	// comment lines start with "// "
//	filterscripts/test.pwn
//	**/*_test.inc
//
// Lists are cached per workspace and reloaded when the file changes.
package ignore
