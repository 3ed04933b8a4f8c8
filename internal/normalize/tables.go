package normalize

// stateCodes maps every Brazilian state's folded full name to its
// two-letter code. Keys are pre-folded: lowercase, no diacritics.
var stateCodes = map[string]string{
	"acre":                "ac",
	"alagoas":             "al",
	"amapa":               "ap",
	"amazonas":            "am",
	"bahia":               "ba",
	"ceara":               "ce",
	"distrito federal":    "df",
	"espirito santo":      "es",
	"goias":               "go",
	"maranhao":            "ma",
	"mato grosso":         "mt",
	"mato grosso do sul":  "ms",
	"minas gerais":        "mg",
	"para":                "pa",
	"paraiba":             "pb",
	"parana":              "pr",
	"pernambuco":          "pe",
	"piaui":               "pi",
	"rio de janeiro":      "rj",
	"rio grande do norte": "rn",
	"rio grande do sul":   "rs",
	"rondonia":            "ro",
	"roraima":             "rr",
	"santa catarina":      "sc",
	"sao paulo":           "sp",
	"sergipe":             "se",
	"tocantins":           "to",
}

// validStateCodes is the set of recognized two-letter codes, used for
// pass-through of already-normalized input.
var validStateCodes = func() map[string]struct{} {
	set := make(map[string]struct{}, len(stateCodes))
	for _, code := range stateCodes {
		set[code] = struct{}{}
	}
	return set
}()

// countryCodes maps folded country names and codes to ISO 3166-1
// alpha-2. The funnel only ships to a handful of markets; anything
// else is dropped rather than guessed.
var countryCodes = map[string]string{
	"br":             "br",
	"bra":            "br",
	"brasil":         "br",
	"brazil":         "br",
	"pt":             "pt",
	"prt":            "pt",
	"portugal":       "pt",
	"us":             "us",
	"usa":            "us",
	"united states":  "us",
	"estados unidos": "us",
}
