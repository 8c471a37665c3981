package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

// Metric es una cifra de mercado que puede faltar en la respuesta de la API.
// El zero value es "ausente" y una métrica ausente nunca cumple un umbral.
type Metric struct {
	Value   float64
	Present bool
}

// Some envuelve un valor conocido.
func Some(v float64) Metric {
	return Metric{Value: v, Present: !math.IsNaN(v)}
}

// AtLeast indica si la métrica está presente y es >= min.
func (m Metric) AtLeast(min float64) bool {
	return m.Present && m.Value >= min
}

// AtMost indica si la métrica está presente y es <= max.
func (m Metric) AtMost(max float64) bool {
	return m.Present && m.Value <= max
}

// Or devuelve el valor, o def si está ausente.
func (m Metric) Or(def float64) float64 {
	if !m.Present {
		return def
	}
	return m.Value
}

// MarshalJSON codifica una métrica ausente como null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Present {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON acepta null, un número o un string numérico.
func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Metric{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*m = Metric{}
			return nil
		}
		data = []byte(s)
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}

// Windows agrupa una cifra por las ventanas estándar de DexScreener.
type Windows struct {
	M5  Metric `json:"m5"`
	H1  Metric `json:"h1"`
	H6  Metric `json:"h6"`
	H24 Metric `json:"h24"`
}

// TxnCounts son las compras/ventas de una ventana.
// Present es false si la API omitió la ventana.
type TxnCounts struct {
	Buys    int  `json:"buys"`
	Sells   int  `json:"sells"`
	Present bool `json:"present"`
}

// TxnWindows agrupa TxnCounts por ventana.
type TxnWindows struct {
	M5  TxnCounts `json:"m5"`
	H1  TxnCounts `json:"h1"`
	H6  TxnCounts `json:"h6"`
	H24 TxnCounts `json:"h24"`
}

// Liquidity del par de referencia.
type Liquidity struct {
	USD   Metric `json:"usd"`
	Base  Metric `json:"base"`
	Quote Metric `json:"quote"`
}

// PairInfo son los recursos gráficos que DexScreener publica para el par.
type PairInfo struct {
	ImageURL  string `json:"icon,omitempty"`
	Header    string `json:"header,omitempty"`
	OpenGraph string `json:"open_graph,omitempty"`
}

// TokenSnapshot es la vista inmutable de un token al descubrirlo: el perfil
// más el primer par de mercado que devuelve la API.
type TokenSnapshot struct {
	Address     string   `json:"token_address"`
	ChainID     string   `json:"chain_id"`
	Name        string   `json:"name,omitempty"`
	Symbol      string   `json:"symbol,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Info        PairInfo `json:"info"`

	DexID         string     `json:"dex_id,omitempty"`
	PairAddress   string     `json:"pair_address,omitempty"`
	PriceUSD      Metric     `json:"price_usd"`
	PriceNative   Metric     `json:"price_native"`
	Liquidity     Liquidity  `json:"liquidity"`
	Volume        Windows    `json:"volume"`
	Txns          TxnWindows `json:"txns"`
	PriceChange   Windows    `json:"price_change"`
	MarketCap     Metric     `json:"market_cap"`
	FDV           Metric     `json:"fdv"`
	PairCreatedAt time.Time  `json:"pair_created_at"`

	DiscoveredAt time.Time `json:"discovered_at"`
}

// AgeMinutes devuelve la edad del par en now, o NaN si no se conoce la creación.
func (s TokenSnapshot) AgeMinutes(now time.Time) float64 {
	return PairAgeMinutes(s.PairCreatedAt, now)
}

// PairAgeMinutes devuelve los minutos desde createdAt. Con createdAt cero
// devuelve NaN y cualquier comparación de edad da false.
func PairAgeMinutes(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return math.NaN()
	}
	return now.Sub(createdAt).Minutes()
}

// ValidTokenAddress indica si addr es una public key de 32 bytes en base58.
func ValidTokenAddress(addr string) bool {
	if addr == "" || strings.TrimSpace(addr) != addr {
		return false
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// DefaultKeywords es la allow-list de descripciones de tokens meme.
var DefaultKeywords = []string{
	"meme", "pepe", "trump", "dog", "shiba", "doge",
	"moon", "rocket", "lfg", "jeet", "woof", "based",
}

// MatchesKeywords indica si la descripción contiene alguna keyword (sin distinguir
// mayúsculas). Una descripción vacía nunca coincide.
func MatchesKeywords(description string, keywords []string) bool {
	if description == "" {
		return false
	}
	desc := strings.ToLower(description)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(desc, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
