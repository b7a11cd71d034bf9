// Package config resolves analyzer settings.
//
// Sources are applied in order, later ones winning:
//
//  1. Default()
//  2. .pawnls.toml at the workspace root (Load)
//  3. LSP initializationOptions (ApplyEditor)
//  4. workspace/configuration for the "pawn" section (ApplyEditor)
//
// Example .pawnls.toml:
//
//	[language]
//	allowWords = false
//
//	[format]
//	braceStyle = "expand"
package config
