package normalize

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// RawFallback produces the unstructured capture of a word-processor
// document: markdown for HTML input, nothing for binary formats. Stored
// alongside the relational decomposition so callers can still display a
// document whose structure was not detected.
func RawFallback(buf []byte, kind Kind) string {
	if kind != KindWordProcessor || bytes.HasPrefix(buf, zipMagic) {
		return ""
	}
	md, err := mdConverter.ConvertString(string(buf))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}
