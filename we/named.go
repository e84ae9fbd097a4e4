package we

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// EntryPointNameOf normalises external spellings such as "getCurrentValue" or "get-current-value".
func EntryPointNameOf(name string) EntryPointName {
	return EntryPointName(strcase.ToSnake(strings.TrimSpace(name)))
}
