package auth

import "github.com/goliatone/go-embedded-api/core"

var (
	_ core.TokenSource         = (*Manager)(nil)
	_ core.TokenAdmin          = (*Manager)(nil)
	_ core.TokenMetadataReader = (*Manager)(nil)
)
