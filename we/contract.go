package we

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type ContractId struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

type EncodedContractId string

// Validate rejects ids whose encoding would be ambiguous. The type may not contain the separator, so every
// encoded id splits back into exactly one ContractId.
func (id ContractId) Validate() error {
	switch {
	case id.Type == "":
		return InvalidContractId(id, "type is empty")
	case strings.Contains(id.Type, "."):
		return InvalidContractId(id, "type contains '.'")
	case id.Key == "":
		return InvalidContractId(id, "key is empty")
	}

	return nil
}

func (id ContractId) Encode() EncodedContractId {
	return EncodedContractId(fmt.Sprintf("%s.%s", id.Type, id.Key))
}

func (id ContractId) String() string {
	return string(id.Encode())
}

func (id EncodedContractId) String() string {
	return string(id)
}

func (id EncodedContractId) Decode() (ContractId, error) {
	parts := strings.SplitN(string(id), ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ContractId{}, errors.Errorf("invalid contract id: %s", id)
	}

	return ContractId{Type: parts[0], Key: parts[1]}, nil
}

type ContractDescriptor struct {
	Name        string
	EntryPoints map[EntryPointName]func() EntryPoint
}
