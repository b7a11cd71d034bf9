// Package scan holds the character-level scanners used to recover context
// from raw document text at a cursor position.
//
// Nothing here parses. Source under edit is usually incomplete, so each
// scanner does one bounded linear walk from the cursor and gives up by
// returning a zero value:
//
//	id := scan.IdentifierAt(text, scan.ToOffset(text, pos))
//	if id.Name == "" {
//	    return nil // nothing under the cursor
//	}
//
//	call := scan.EnclosingCall(text, offset)
//	// call.Name == "SetPlayerPos", call.ParameterIndex == 2
//
// Offsets are byte offsets into the document; ToOffset and PositionAt
// convert to and from editor positions, which count UTF-16 code units.
package scan
