package service

// DefaultConcepts is the seed library of ICT concepts.
var DefaultConcepts = []string{
	"BOS",
	"CHoCH",
	"FVG",
	"iFVG",
	"Order Block (OB)",
	"Breaker Block",
	"Mitigation Block",
	"Liquidity Sweep",
	"Equal Highs (EQH)",
	"Equal Lows (EQL)",
	"Premium/Discount",
	"Daily High/Low",
	"Weekly High/Low",
	"Previous Day High (PDH)",
	"Previous Day Low (PDL)",
	"Overnight High",
	"Overnight Low",
	"Killzone Confluence",
	"Market Structure Shift (MSS)",
	"Displacement",
	"Imbalance",
	"Judas Swing",
	"OTE",
	"Round Number / Psychological Level",
}
