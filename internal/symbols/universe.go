package symbols

// Universe names a curated watchlist
type Universe string

const (
	UniverseCore     Universe = "core"     // quick daily check
	UniverseETF      Universe = "etf"      // index and sector funds
	UniverseLeaders  Universe = "leaders"  // liquid large caps by sector
	UniverseMomentum Universe = "momentum" // high-beta growth
)

// Universes lists the names accepted by GetUniverse
var Universes = []Universe{UniverseCore, UniverseETF, UniverseLeaders, UniverseMomentum}

// GetUniverse returns the symbols of a universe, or nil for an unknown name
func GetUniverse(u Universe) []string {
	switch u {
	case UniverseCore:
		return CoreSymbols
	case UniverseETF:
		return ETFSymbols
	case UniverseLeaders:
		return LeaderSymbols
	case UniverseMomentum:
		return MomentumSymbols
	default:
		return nil
	}
}

// Names returns the universe names in display order
func Names() []string {
	names := make([]string, len(Universes))
	for i, u := range Universes {
		names[i] = string(u)
	}
	return names
}

// Every list trades far above the default 5M daily turnover floor, so the
// liquidity gate only removes names whose volume dries up.

// CoreSymbols is a short list that finishes a scan within the free Yahoo limit
var CoreSymbols = []string{
	"SPY", "QQQ", "AAPL", "MSFT", "NVDA",
	"AMZN", "META", "GOOGL", "JPM", "XOM",
}

// ETFSymbols are the broad index funds and the SPDR sector funds. Sector
// rotation shows up here before it shows up in single names.
var ETFSymbols = []string{
	"SPY", "QQQ", "IWM", "DIA", "MDY",
	"XLK", "XLF", "XLV", "XLE", "XLI", "XLY", "XLP", "XLU", "XLB", "XLRE", "XLC",
	"SMH", "XBI", "KRE", "XHB", "ITB", "GDX", "TLT",
}

// LeaderSymbols are large caps with orderly daily trends, grouped by sector
var LeaderSymbols = []string{
	// Technology
	"AAPL", "MSFT", "NVDA", "AVGO", "ORCL", "CRM", "ADBE", "AMD", "CSCO", "QCOM",
	"TXN", "AMAT", "LRCX", "KLAC", "NOW", "INTU", "ANET", "PANW",
	// Communications
	"GOOGL", "META", "NFLX", "DIS", "TMUS",
	// Consumer
	"AMZN", "COST", "WMT", "HD", "LOW", "MCD", "TJX", "NKE", "SBUX", "CMG", "BKNG",
	// Financials
	"BRK.B", "JPM", "V", "MA", "BAC", "GS", "MS", "AXP", "BLK", "SPGI",
	// Healthcare
	"LLY", "UNH", "JNJ", "ABBV", "MRK", "TMO", "ISRG", "VRTX", "REGN", "SYK",
	// Industrials
	"CAT", "DE", "GE", "HON", "UNP", "ETN", "RTX", "LMT", "URI", "PH",
	// Energy and materials
	"XOM", "CVX", "COP", "EOG", "SLB", "LIN", "FCX", "NUE",
}

// MomentumSymbols swing wider than the leaders. Pullbacks are deeper, so more
// of them fall into the TOO_DEEP zone.
var MomentumSymbols = []string{
	"TSLA", "PLTR", "CRWD", "SNOW", "DDOG", "NET", "ZS", "MDB", "SHOP", "MELI",
	"UBER", "ABNB", "COIN", "HOOD", "SQ", "RBLX", "ARM", "SMCI", "MU", "MRVL",
	"ENPH", "CELH", "DKNG", "AFRM", "TTD", "APP", "AXON", "VST",
}
