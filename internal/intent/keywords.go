package intent

import (
	"regexp"
	"strings"
)

// Action keywords, checked in order; BUY before SELL
var (
	buyWords = []string{
		"buy", "purchase", "acquire", "long", "enter",
		"get", "add", "accumulate", "pick", "invest",
	}
	sellWords = []string{
		"sell", "exit", "short", "dump", "offload",
		"liquidate", "close", "unload", "book profit", "square off",
	}
)

// noiseWords are uppercase tokens that are never tickers
var noiseWords = toSet(
	"I", "A", "AT", "IN", "TO", "OF", "THE", "MY", "IS", "IT", "ON", "FOR",
	"AND", "OR", "NOT", "BUT", "ALL", "DO", "IF", "SO", "UP", "AM", "AN",
	"BE", "BY", "GO", "HE", "ME", "NO", "OK", "US", "WE", "AS", "CAN",
	"BUY", "SELL", "NOW", "QTY", "MKT", "LTP", "SET", "PUT", "GET",
	"WANT", "LIKE", "SOME", "WITH", "FROM", "WILL", "THAT", "THIS", "HAVE",
	"JUST", "BEEN", "THEM", "EACH", "MORE", "ALSO", "THAN", "VERY", "MUCH",
	"TODAY", "PRICE", "MARKET", "LIMIT", "SHARES", "STOCK", "TRADE",
)

var (
	symbolPattern   = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	quantityPattern = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:shares?|lots?|qty|units?|nos?|quantities?)?`)
	pricePattern    = regexp.MustCompile(`(?i)(?:\bat|@|\bprice)\s*\$?\s*(\d+(?:\.\d+)?)`)
	limitPattern    = regexp.MustCompile(`(?i)\b(?:limit|target|tp|sl|stop.?loss)\s*(?:at|@|of)?\s*\$?\s*(\d+(?:\.\d+)?)`)
	marketPattern   = regexp.MustCompile(`(?i)\b(?:market price|market order|today'?s price|current price|cmp|ltp)\b`)
	nonLetters      = regexp.MustCompile(`[^A-Za-z]`)
)

var (
	buyMatchers  = wordMatchers(buyWords)
	sellMatchers = wordMatchers(sellWords)
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// wordMatchers compiles word-prefix matchers so inflections ("selling", "exited") count.
// Multi-word phrases tolerate any whitespace; the leading \b keeps "target" from matching "get".
func wordMatchers(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		parts := strings.Fields(w)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		out = append(out, regexp.MustCompile(`\b`+strings.Join(parts, `\s+`)+`\w*`))
	}
	return out
}

func isNoise(token string) bool {
	_, ok := noiseWords[strings.ToUpper(token)]
	return ok
}
