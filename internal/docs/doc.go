// Package docs renders Pawn documentation comments as markdown.
//
// Include files document natives with an XML-like dialect:
//
//	/**
//	 * <summary>Sets the health of a player.</summary>
//	 * <param name="playerid">The player to set the health of</param>
//	 * <param name="health">The value to set, <b>100.0</b> is full</param>
//	 * <returns><b><c>1</c></b> on success</returns>
//	 * <remarks><ul><li>Health is a float.</li></ul></remarks>
//	 */
//	native SetPlayerHealth(playerid, Float:health);
//
// CommentBody pulls the comment above a declaration line out of the
// document, and Render turns it into a fixed layout: description, then
// "### Params", "### Returns" and "### Remarks". Missing sections get a
// fallback sentence so every rendered block has all four parts.
//
// Inline markup is substituted in a single pass; malformed markup renders
// partially rather than failing.
package docs
