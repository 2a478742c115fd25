// Package relevance gates raw content on a fixed political keyword list.
// Matching is case-insensitive substring containment; accented and unaccented
// spellings are distinct entries so either form of a term counts.
package relevance

import "strings"

// Thresholds used by the two collection paths. Primary collection requires
// two distinct keyword hits; lower-confidence paths (backfill, comments with
// parent context) accept a single hit.
const (
	PrimaryThreshold   = 2
	SecondaryThreshold = 1
)

var politicalKeywords = []string{
	// Politicians, with and without accents
	"milei", "cristina", "cfk", "macri", "massa", "bullrich", "kicillof", "axel",
	"fernandez", "fernández", "larreta", "rodriguez", "rodríguez",
	"patricia bullrich", "alberto", "mauricio", "nestor", "néstor",
	"scioli", "randazzo", "schiaretti", "moreno", "grabois",
	"del caño", "del cano", "espert", "gomez", "gómez centurión", "centurion",
	"villarruel", "santoro", "tolosa paz", "manes", "facundo", "bregman",
	"stolbizer", "lousteau", "martin", "tetaz", "vidal",

	// Political terms
	"politica", "política", "politico", "político", "politicos", "políticos",
	"elecciones", "eleccion", "elección", "electoral", "electorales",
	"votar", "votacion", "votación", "voto", "votos",
	"presidente", "presidencia", "presidencial", "presidenciales",
	"gobierno", "gobernador", "gobernadora", "intendente",
	"congreso", "senado", "diputados", "diputado", "diputada", "senador", "senadora",
	"legislatura", "legislador", "legisladora", "legislativo",
	"ministro", "ministra", "ministerio", "secretario", "secretaria",
	"funcionario", "funcionaria", "dirigente", "autoridades",

	// Parties and movements
	"peronismo", "peronista", "peron", "perón", "justicialista",
	"kirchnerismo", "kirchnerista", "cristinismo",
	"macrismo", "macrista", "cambiemos", "pro",
	"libertarios", "libertario", "la libertad avanza", "lla", "llaa",
	"juntos por el cambio", "jxc", "jpc",
	"frente de todos", "union por la patria", "unión por la patria", "up",
	"ucr", "radical", "radicalismo", "radicales",
	"izquierda", "fit", "fitu", "socialista", "comunista",
	"fpv", "frente para la victoria",

	// Government terms
	"estado", "nacional", "provincial", "municipal",
	"casa rosada", "rosada", "balcarce",
	"camara", "cámara", "ejecutivo", "judicial",
	"poder ejecutivo", "poder legislativo", "poder judicial",

	// Political topics
	"campaña", "campana", "propaganda", "proselitismo",
	"reforma", "proyecto de ley", "ley", "decreto", "dnu",
	"veto", "sancion", "sanción", "promulgacion", "promulgación",
	"corrupcion", "corrupción", "corrupto", "coima", "soborno",
	"juicio politico", "juicio político", "impeachment", "destitución", "destitucion",
	"condena", "procesamiento", "causa", "fiscal", "juez",

	// Protests and social movements
	"manifestacion", "manifestación", "marcha", "protesta", "movilizacion", "movilización",
	"piquete", "piquetero", "corte", "ruta", "calle",
	"sindical", "sindicato", "gremio", "cgt", "cta",
	"huelga", "paro", "conflicto", "reclamo",

	// Economic and political terms
	"impuesto", "impuestos", "tributo", "tasas",
	"deficit", "déficit", "presupuesto", "deuda",
	"ajuste", "recorte", "inflacion", "inflación",
	"dolar", "dólar", "peso", "economia", "economía", "economico", "económico",
	"subsidio", "plan", "planes", "asignacion", "asignación",

	// Democratic processes
	"democracia", "democratico", "democrático",
	"constitucion", "constitución", "constitucional",
	"republica", "república", "republicano",
	"golpe", "golpe de estado", "dictadura", "autoritario",

	// Argentina specific
	"argentina", "argentino", "argentinos", "pais", "país", "nacion", "nación",
	"patria", "territorio", "soberania", "soberanía",
}

// MatchCount returns how many distinct keywords appear in the text.
func MatchCount(text string) int {
	lower := strings.ToLower(text)

	matches := 0
	for _, keyword := range politicalKeywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}
	return matches
}

// IsRelevant reports whether the text clears the given match threshold.
func IsRelevant(text string, threshold int) bool {
	return MatchCount(text) >= threshold
}

// KeywordCount is the size of the fixed keyword list.
func KeywordCount() int {
	return len(politicalKeywords)
}
