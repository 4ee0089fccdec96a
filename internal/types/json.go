package types

import jsoniter "github.com/json-iterator/go"

// JSON encodes payloads deterministically: map keys sorted, no HTML escaping.
// Charges files and exchange-rate attachments are content-addressed, so identical
// input must always produce identical bytes.
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()
