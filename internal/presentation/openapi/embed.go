package openapi

import _ "embed"

// Spec OpenAPI仕様ドキュメント
//
//go:embed openapi.yaml
var Spec []byte
