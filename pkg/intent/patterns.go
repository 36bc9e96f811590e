package intent

import (
	"regexp"
	"strings"

	"concierge/pkg/proto"
)

// pattern is one classification signal. Exactly one of keyword or re is set.
// Keywords match against the normalized text as a substring; regexes run on
// the normalized text as-is.
type pattern struct {
	keyword string
	re      *regexp.Regexp
}

func kw(s string) pattern    { return pattern{keyword: s} }
func rx(expr string) pattern { return pattern{re: regexp.MustCompile(expr)} }

// intentPatterns maps locale and intent to its signal list. New languages or
// phrasings are additive entries here, not code changes.
var intentPatterns = map[proto.Locale]map[proto.Intent][]pattern{
	proto.LocaleSpanish: {
		proto.IntentTool: {
			kw("reservar"), kw("reserva"), kw("reservacion"),
			kw("cancelar"), kw("anular"),
			kw("cambiar"), kw("modificar"), kw("mover"),
			kw("pedido"), kw("pedir"), kw("ordenar"), kw("encargar"),
			kw("mesa para"), kw("una mesa"),
			kw("dejar un mensaje"), kw("dejar un recado"), kw("tomar nota"),
			rx(`\bmesa\b.*\bpersonas?\b`),
		},
		proto.IntentRAG: {
			kw("horario"), kw("abren"), kw("cierran"), kw("abierto"), kw("cerrado"),
			kw("donde esta"), kw("direccion"), kw("como llegar"), kw("ubicacion"),
			kw("menu"), kw("carta"), kw("precio"), kw("cuanto cuesta"), kw("cuanto vale"),
			kw("parking"), kw("aparcamiento"), kw("terraza"),
			kw("alergenos"), kw("vegetariano"), kw("vegano"), kw("sin gluten"),
			rx(`^(que|cual|cuales|cuando|donde|como)\b`),
			rx(`\btienen\b`), rx(`\bteneis\b`), rx(`\bhay\b`),
		},
		proto.IntentTransfer: {
			kw("hablar con una persona"), kw("hablar con alguien"),
			kw("hablar con el encargado"), kw("hablar con un humano"),
			kw("pasame con"), kw("transferir"), kw("operador"),
			kw("el responsable"), kw("el dueño"),
		},
		proto.IntentDirect: {
			kw("hola"), kw("buenas"), kw("buenos dias"), kw("buenas tardes"),
			kw("buenas noches"), kw("adios"), kw("hasta luego"), kw("chao"),
			kw("gracias"), kw("muchas gracias"), kw("vale"), kw("perfecto"),
			kw("de acuerdo"), kw("entendido"),
		},
	},
	proto.LocaleEnglish: {
		proto.IntentTool: {
			kw("book"), kw("reserve"), kw("reservation"), kw("booking"),
			kw("cancel"), kw("change my"), kw("modify"), kw("reschedule"),
			kw("order"), kw("place an order"), kw("takeout"), kw("take out"),
			kw("table for"), kw("a table"),
			kw("leave a message"), kw("take a message"),
		},
		proto.IntentRAG: {
			kw("hours"), kw("open"), kw("close"), kw("opening"),
			kw("where are you"), kw("address"), kw("directions"), kw("location"),
			kw("menu"), kw("price"), kw("how much"), kw("cost"),
			kw("parking"), kw("terrace"), kw("patio"),
			kw("allergen"), kw("vegetarian"), kw("vegan"), kw("gluten"),
			rx(`^(what|which|when|where|how)\b`),
			rx(`\bdo you have\b`), rx(`\bis there\b`),
		},
		proto.IntentTransfer: {
			kw("speak to a person"), kw("talk to a person"), kw("speak to someone"),
			kw("talk to someone"), kw("real person"), kw("human"),
			kw("transfer me"), kw("the manager"), kw("the owner"), kw("operator"),
		},
		proto.IntentDirect: {
			kw("hello"), kw("hi there"), kw("good morning"), kw("good afternoon"),
			kw("good evening"), kw("goodbye"), kw("bye"), kw("see you"),
			kw("thanks"), kw("thank you"), kw("okay"), kw("perfect"),
			kw("sounds good"), kw("got it"),
		},
	},
}

// subIntentPatterns resolves the finer-grained label once the coarse intent
// is known. First match wins, so more specific entries come first.
type subIntentRule struct {
	sub      string
	patterns []pattern
}

var subIntentRules = map[proto.Locale][]subIntentRule{
	proto.LocaleSpanish: {
		{"reservation.cancel", []pattern{
			rx(`\b(cancelar|anular)\b.*\breserva`), kw("cancelar mi reserva"),
			kw("anular la reserva"), kw("cancelar la mesa"),
			rx(`\bcancelar\b`),
		}},
		{"reservation.modify", []pattern{
			rx(`\b(cambiar|modificar|mover)\b.*\breserva`),
			kw("cambiar la hora"), kw("cambiar el dia"),
		}},
		{"reservation.create", []pattern{
			kw("reservar"), kw("una mesa"), kw("mesa para"),
			rx(`\breserva\b`),
		}},
		{"order.create", []pattern{
			kw("pedido"), kw("pedir"), kw("ordenar"), kw("encargar"),
			kw("para llevar"),
		}},
		{"message.take", []pattern{
			kw("dejar un mensaje"), kw("dejar un recado"), kw("tomar nota"),
		}},
		{"info.hours", []pattern{
			kw("horario"), kw("abren"), kw("cierran"), kw("abierto"), kw("cerrado"),
		}},
		{"info.location", []pattern{
			kw("donde esta"), kw("direccion"), kw("como llegar"), kw("ubicacion"),
		}},
		{"info.menu", []pattern{
			kw("menu"), kw("carta"), kw("precio"), kw("cuanto cuesta"),
		}},
		{"greeting", []pattern{
			kw("hola"), kw("buenas"), kw("buenos dias"), kw("buenas tardes"),
			kw("buenas noches"),
		}},
		{"farewell", []pattern{
			kw("adios"), kw("hasta luego"), kw("chao"), kw("eso es todo"),
			kw("nada mas"),
		}},
		{"acknowledgment", []pattern{
			kw("gracias"), kw("vale"), kw("perfecto"), kw("de acuerdo"),
			kw("entendido"),
		}},
	},
	proto.LocaleEnglish: {
		{"reservation.cancel", []pattern{
			rx(`\bcancel\b.*\b(reservation|booking|table)\b`),
			kw("cancel my reservation"), kw("cancel my booking"),
			rx(`\bcancel\b`),
		}},
		{"reservation.modify", []pattern{
			rx(`\b(change|modify|reschedule|move)\b.*\b(reservation|booking)\b`),
			kw("change the time"), kw("change the date"),
		}},
		{"reservation.create", []pattern{
			kw("book"), kw("reserve"), kw("a table"), kw("table for"),
			rx(`\breservation\b`),
		}},
		{"order.create", []pattern{
			kw("order"), kw("takeout"), kw("take out"), kw("to go"),
		}},
		{"message.take", []pattern{
			kw("leave a message"), kw("take a message"),
		}},
		{"info.hours", []pattern{
			kw("hours"), kw("open"), kw("close"), kw("opening"),
		}},
		{"info.location", []pattern{
			kw("where are you"), kw("address"), kw("directions"), kw("location"),
		}},
		{"info.menu", []pattern{
			kw("menu"), kw("price"), kw("how much"), kw("cost"),
		}},
		{"greeting", []pattern{
			kw("hello"), kw("hi there"), kw("good morning"), kw("good afternoon"),
			kw("good evening"),
		}},
		{"farewell", []pattern{
			kw("goodbye"), kw("bye"), kw("see you"), kw("that is all"),
			kw("nothing else"),
		}},
		{"acknowledgment", []pattern{
			kw("thanks"), kw("thank you"), kw("okay"), kw("perfect"),
			kw("got it"),
		}},
	},
}

// Yes/no detection used when a confirmation is outstanding. Kept separate
// from the confirmation interpreter's full pattern set on purpose: the
// router only needs to decide that the utterance is an answer, not what
// the answer means.
var yesNoPatterns = map[proto.Locale][]pattern{
	proto.LocaleSpanish: {
		rx(`^(si|no)\b`), rx(`^claro\b`), rx(`^por supuesto\b`),
		rx(`^vale\b`), rx(`^de acuerdo\b`), rx(`^correcto\b`),
		rx(`^mejor no\b`), rx(`^asi es\b`),
	},
	proto.LocaleEnglish: {
		rx(`^(yes|no|yeah|yep|nope|nah)\b`), rx(`^sure\b`), rx(`^of course\b`),
		rx(`^okay\b`), rx(`^ok\b`), rx(`^correct\b`), rx(`^that is right\b`),
		rx(`^rather not\b`),
	},
}

func (p pattern) matches(normalized string) bool {
	if p.re != nil {
		return p.re.MatchString(normalized)
	}
	return p.keyword != "" && containsPhrase(normalized, p.keyword)
}

// containsPhrase reports whether phrase appears in text on word boundaries,
// so "no" does not match inside "noche".
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := indexFrom(text, phrase, idx)
		if i < 0 {
			return false
		}
		startOK := i == 0 || text[i-1] == ' '
		end := i + len(phrase)
		endOK := end == len(text) || text[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = i + 1
	}
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
