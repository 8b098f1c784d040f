package generator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type CodeGenerator struct{}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

// GenerateReceiptNumber produces the human-facing receipt identifier
// printed on committed sales, e.g. RCP-20260823-1a2b3c4d5e.
func (g *CodeGenerator) GenerateReceiptNumber(at time.Time) (string, error) {
	randomBytes := make([]byte, 5)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	return fmt.Sprintf("RCP-%s-%s", at.UTC().Format("20060102"), hex.EncodeToString(randomBytes)), nil
}

func (g *CodeGenerator) GenerateSettlementID() string {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return ""
	}
	return fmt.Sprintf("STL-%s", hex.EncodeToString(randomBytes))
}
