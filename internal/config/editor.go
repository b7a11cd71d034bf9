package config

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("pawnls.config")

// ApplyEditor overlays settings sent by the editor, either as LSP
// initializationOptions or as a workspace/configuration result. It accepts
// the "pawn" section ({"enableColorPicker": .., "language": {..}}), the
// "pawn.language" section on its own, or either wrapped in {"pawn": ..}.
// Unknown keys and values of the wrong type are ignored.
func (s *Settings) ApplyEditor(v any) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	if inner, ok := m["pawn"].(map[string]any); ok {
		m = inner
	}

	setBool(m, "enableColorPicker", &s.Color.EnableColorPicker)
	setBool(m, "enableGameTextColors", &s.Color.EnableGameTextColors)

	lang := m
	if inner, ok := m["language"].(map[string]any); ok {
		lang = inner
	}
	setBool(lang, "allowDefine", &s.Language.AllowDefine)
	setBool(lang, "allowDefineFunction", &s.Language.AllowDefineFunction)
	setBool(lang, "allowFunction", &s.Language.AllowFunction)
	setBool(lang, "allowNatives", &s.Language.AllowNatives)
	setBool(lang, "allowWords", &s.Language.AllowWords)
	setBool(lang, "allowCustomSnip", &s.Language.AllowCustomSnip)

	if style, ok := lang["brace_style"].(string); ok {
		if ValidBraceStyle(style) {
			s.Format.BraceStyle = style
		} else {
			log.Warningf("ignoring unsupported brace_style %q", style)
		}
	}
}

func setBool(m map[string]any, key string, dst *bool) {
	if b, ok := m[key].(bool); ok {
		*dst = b
	}
}
