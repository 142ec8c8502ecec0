package invoicing

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultNumberPrefix prefijo de los números de factura.
const DefaultNumberPrefix = "INV"

// NumberGenerator produce candidatos PREFIX-YYYYMM-XXXXXXXXXX. La unicidad
// la garantiza el almacenamiento; el llamador reintenta ante colisión.
type NumberGenerator struct {
	prefix  string
	entropy func() string
}

// NewNumberGenerator construye el generador; prefix vacío usa DefaultNumberPrefix.
func NewNumberGenerator(prefix string) *NumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &NumberGenerator{prefix: prefix, entropy: randomSuffix}
}

// WithEntropy reemplaza la fuente del sufijo aleatorio (tests).
func (g *NumberGenerator) WithEntropy(fn func() string) *NumberGenerator {
	g.entropy = fn
	return g
}

// Next devuelve un candidato para el mes de now (UTC).
func (g *NumberGenerator) Next(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", g.prefix, now.UTC().Format("200601"), g.entropy())
}

// randomSuffix: 10 hex en mayúsculas tomados de los 5 primeros bytes de un UUID v4
// (bytes sin bits de versión/variante, 40 bits de entropía).
func randomSuffix() string {
	id := uuid.New()
	return strings.ToUpper(hex.EncodeToString(id[:5]))
}
