// Package openapi REST APIのOpenAPI定義を埋め込む
package openapi

import _ "embed"

// Spec openapi.yaml の内容
//
//go:embed openapi.yaml
var Spec []byte
