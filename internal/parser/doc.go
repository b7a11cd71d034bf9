// Package parser extracts symbol candidates from Pawn source text.
//
// Pawn code in the wild is routinely incomplete and heavily macro-driven,
// so the parser does not build a syntax tree. It runs a fixed sequence of
// line-anchored regular expression passes, each producing candidates of one
// kind:
//
//	native      native SetHealth(playerid, Float:health);
//	forward     forward OnTimer(id);
//	function    stock Float:GetSpeed(vehicleid)
//	bare-call   main()                      (at column zero)
//	snippet     //#snippet pfor for(new i; i < MAX_PLAYERS; i++)
//	            //#function SendMsg(playerid, const msg[])
//	define      #define IsValid(%0) ((%0) != -1)
//	            #define MAX_HOUSES 100
//
// # Basic Usage
//
//	p := parser.New()
//	result := p.Parse(uri, text, parser.AllPasses())
//
//	for _, sym := range result.Symbols {
//	    fmt.Printf("%s %s\n", sym.Kind, sym.Label)
//	}
//
// Lines inside block comments and "//" line comments are skipped by every
// pass except the snippet pass, which only looks at line comments. Names
// containing "__" are treated as library internals and never extracted.
//
// The parser returns every candidate it finds, including duplicates.
// Choosing which candidate owns a name is the symbol table's job.
//
// # Documentation
//
// A "/** ... */" block ending on the line directly above a native, forward
// or function declaration is rendered with the docs package and attached
// to the symbol.
package parser
