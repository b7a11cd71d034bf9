package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Empty(t *testing.T) {
	want := "This function doesn't have description\n" +
		"### Params\nThis function doesn't have parameter\n" +
		"### Returns\nThis function doesn't return any value (void)\n" +
		"### Remarks\nThis function doesn't have additional notes\n"
	assert.Equal(t, want, Render(""))
}

func TestRender_AllSections(t *testing.T) {
	body := `<summary>Sets the <b>health</b> of a player.</summary>
<param name="playerid">The <c>ID</c> of the player</param>
<param name="health">New value</param>
<returns><b><c>1</c></b> on success</returns>
<remarks>First note</remarks>
<remarks><ul><li>one</li><li>two</li></ul></remarks>`

	got := Render(body)

	assert.True(t, strings.HasPrefix(got, "Sets the **health** of a player.\n### Params\n"))
	assert.Contains(t, got, "* `playerid` - The `ID` of the player\n")
	assert.Contains(t, got, "* `health` - New value\n")
	assert.Contains(t, got, "### Returns\n**`1`** on success\n")
	assert.Contains(t, got, "### Remarks\nFirst note\n  * one  * two")
	assert.NotContains(t, got, NoRemarks)
	assert.NotContains(t, got, NoParameters)
}

func TestRender_VariadicParam(t *testing.T) {
	got := Render(`<param name="">Format arguments</param>`)
	assert.Contains(t, got, "* `...` - Format arguments\n")
}

func TestRender_ReturnTagVariants(t *testing.T) {
	assert.Contains(t, Render("<return>ok</return>"), "### Returns\nok\n")
	assert.Contains(t, Render("<returns>ok</returns>"), "### Returns\nok\n")
}

func TestRender_Inline(t *testing.T) {
	got := Render(`<summary><em>a</em>&lt;b&gt;<br>c<br />d<a href="x">link</a></summary>`)
	assert.True(t, strings.HasPrefix(got, "*a*<b>\nc\nd`link`\n"), got)
}

func TestRender_Malformed(t *testing.T) {
	// unterminated summary falls back, stray tags pass through
	got := Render("<summary>never closed <b>bold")
	assert.True(t, strings.HasPrefix(got, NoDescription))
}

func TestCommentBody(t *testing.T) {
	lines := []string{
		"#include <a_samp>",
		"/**",
		" * <summary>Kicks a player.</summary>",
		" */",
		"native Kick(playerid);",
		"native Ban(playerid);",
	}

	assert.Equal(t, "<summary>Kicks a player.</summary>", CommentBody(lines, 4))
	assert.Equal(t, "", CommentBody(lines, 5), "previous line is code")
	assert.Equal(t, "", CommentBody(lines, 0))
	assert.Equal(t, "", CommentBody(lines, 99))
}

func TestCommentBody_SingleLine(t *testing.T) {
	lines := []string{
		"/* <summary>Short</summary> */",
		"stock Foo() {}",
	}
	assert.Equal(t, "<summary>Short</summary>", CommentBody(lines, 1))
}

func TestCommentBody_NoOpener(t *testing.T) {
	lines := []string{"x */", "stock Foo() {}"}
	assert.Equal(t, "", CommentBody(lines, 1))
}
